package config

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a config string to a logrus level.
func ParseLevel(level string) (logrus.Level, error) {
	switch level {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
}

// LogOutput returns the rotating file writer for the configured log file.
// Stdout belongs to the TUI, so file output is the default sink.
func (c *Config) LogOutput() io.Writer {
	return &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}
}

// NewLogger builds the application logger writing to out.
func (c *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(out)

	return logger, nil
}
