package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tbarnes/volcano-companion/internal/volcano"
)

// Config holds the runtime settings of the companion app. Everything has a
// working default; the device address is the only value most users override.
type Config struct {
	DeviceAddress     string
	PollInterval      time.Duration
	RSSIInterval      time.Duration
	ReconnectInterval time.Duration

	LogFile  string
	LogLevel string

	// Mock replaces the BLE transport with the in-memory simulator.
	Mock bool
}

// RegisterFlags declares the command line flags on fs. Call before Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("address", volcano.DefaultDeviceAddress, "MAC address of the vaporizer")
	fs.Duration("poll-interval", volcano.DefaultPollInterval, "temperature poll cadence")
	fs.Duration("rssi-interval", volcano.DefaultRSSIInterval, "signal strength poll cadence")
	fs.Duration("reconnect-interval", volcano.DefaultReconnectInterval, "backoff between failed connects")
	fs.String("log-file", "volcano-companion.log", "log file path")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("mock", false, "run against a simulated device instead of real Bluetooth")
	fs.String("config", "", "optional config file (yaml)")
}

// Load resolves the configuration: defaults, then an optional yaml file, then
// environment (VOLCANO_*), then flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("address", volcano.DefaultDeviceAddress)
	v.SetDefault("poll-interval", volcano.DefaultPollInterval)
	v.SetDefault("rssi-interval", volcano.DefaultRSSIInterval)
	v.SetDefault("reconnect-interval", volcano.DefaultReconnectInterval)
	v.SetDefault("log-file", "volcano-companion.log")
	v.SetDefault("log-level", "info")
	v.SetDefault("mock", false)

	v.SetEnvPrefix("VOLCANO")
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("volcano-companion")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/volcano-companion")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		DeviceAddress:     v.GetString("address"),
		PollInterval:      v.GetDuration("poll-interval"),
		RSSIInterval:      v.GetDuration("rssi-interval"),
		ReconnectInterval: v.GetDuration("reconnect-interval"),
		LogFile:           v.GetString("log-file"),
		LogLevel:          v.GetString("log-level"),
		Mock:              v.GetBool("mock"),
	}

	if cfg.DeviceAddress == "" {
		return nil, errors.New("device address cannot be empty")
	}
	if cfg.PollInterval <= 0 || cfg.RSSIInterval <= 0 || cfg.ReconnectInterval <= 0 {
		return nil, errors.New("intervals must be positive")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}
