package mediactl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/smartpc/mediactl/internal/devices"
	"github.com/smartpc/mediactl/internal/harness"
	"github.com/smartpc/mediactl/internal/remote"
	"github.com/smartpc/mediactl/internal/telemetry"
	"github.com/tidwall/jsonc"
)

// Duration is a time.Duration that reads "250ms"-style strings from JSON.
// Plain numbers are taken as milliseconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value) * time.Millisecond)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

// Config holds the daemon settings. Zero values mean "use the default".
type Config struct {
	ListenAddress      string   `json:"listen_address"`
	LogLevel           string   `json:"log_level"`
	StatsPollInterval  Duration `json:"stats_poll_interval"`
	MeterInterval      Duration `json:"meter_interval"`
	AdapterCallTimeout Duration `json:"adapter_call_timeout"`
	ProfilesPath       string   `json:"profiles_path"`
	DeviceWatchPaths   []string `json:"device_watch_paths"`
	VideoDeviceGlob    string   `json:"video_device_glob"`
	ICEServers         []string `json:"ice_servers"`
	SpeechBinary       string   `json:"speech_binary"`
}

const defaultConfigPath = "/etc/mediactl/config.json"

func defaultConfig() *Config {
	return &Config{
		ListenAddress:      ":8080",
		LogLevel:           "info",
		StatsPollInterval:  Duration(telemetry.DefaultPollInterval),
		MeterInterval:      Duration(harness.DefaultMeterInterval),
		AdapterCallTimeout: Duration(remote.DefaultCallTimeout),
		ProfilesPath:       "/var/lib/mediactl/profiles.json",
		DeviceWatchPaths:   devices.DefaultWatchPaths,
		VideoDeviceGlob:    devices.DefaultVideoGlob,
		ICEServers:         []string{"stun:stun.l.google.com:19302"},
		SpeechBinary:       "espeak-ng",
	}
}

// LoadConfig reads the config file at path over the defaults. Comments and
// trailing commas are allowed. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		configLogger.Debug().Str("path", path).Msg("config file not found, using defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// fillDefaults restores defaults for fields the file zeroed out.
func (c *Config) fillDefaults() {
	def := defaultConfig()
	if c.ListenAddress == "" {
		c.ListenAddress = def.ListenAddress
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.StatsPollInterval <= 0 {
		c.StatsPollInterval = def.StatsPollInterval
	}
	if c.MeterInterval <= 0 {
		c.MeterInterval = def.MeterInterval
	}
	if c.AdapterCallTimeout <= 0 {
		c.AdapterCallTimeout = def.AdapterCallTimeout
	}
	if len(c.DeviceWatchPaths) == 0 {
		c.DeviceWatchPaths = def.DeviceWatchPaths
	}
	if c.VideoDeviceGlob == "" {
		c.VideoDeviceGlob = def.VideoDeviceGlob
	}
	if c.SpeechBinary == "" {
		c.SpeechBinary = def.SpeechBinary
	}
}
