//go:build linux

package speech

import (
	"os/exec"
	"syscall"
)

// configureProcess ties the synthesizer's lifetime to ours so a preview
// never outlives the daemon.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
