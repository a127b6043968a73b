package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbarnes/volcano-companion/internal/volcano"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlagSet(t))
	require.NoError(t, err)

	assert.Equal(t, volcano.DefaultDeviceAddress, cfg.DeviceAddress)
	assert.Equal(t, volcano.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, volcano.DefaultRSSIInterval, cfg.RSSIInterval)
	assert.Equal(t, volcano.DefaultReconnectInterval, cfg.ReconnectInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Mock)
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	fs := newFlagSet(t,
		"--address", "AA:BB:CC:DD:EE:FF",
		"--poll-interval", "250ms",
		"--log-level", "debug",
		"--mock",
	)

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.DeviceAddress)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Mock)
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	_, err := Load(newFlagSet(t, "--log-level", "loud"))
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyAddress(t *testing.T) {
	_, err := Load(newFlagSet(t, "--address", ""))
	assert.Error(t, err)
}

func TestLoad_RejectsMissingConfigFile(t *testing.T) {
	_, err := Load(newFlagSet(t, "--config", "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for level, want := range map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
	} {
		got, err := ParseLevel(level)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLevel("")
	assert.Error(t, err)
}
