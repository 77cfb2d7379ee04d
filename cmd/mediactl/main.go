package main

import (
	"github.com/spf13/pflag"

	"github.com/smartpc/mediactl"
)

func main() {
	var flags mediactl.Flags
	pflag.StringVarP(&flags.ConfigPath, "config", "c", "", "path to the JSON config file")
	pflag.StringVar(&flags.LogLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	pflag.StringVar(&flags.ListenAddress, "listen", "", "HTTP listen address override")
	pflag.Parse()

	mediactl.Exit(mediactl.Main(flags))
}
