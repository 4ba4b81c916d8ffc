// Package log provides a thread-safe, structured logging infrastructure with filesystem-based persistence.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vidfetch/vidfetch/filesystem"
	"github.com/vidfetch/vidfetch/key"
	"github.com/vidfetch/vidfetch/where"
)

// enabled indicates the persistent logging state for the active application instance.
var enabled bool

// Setup configures the standard logrus logger from the global configuration.
// When file logging is disabled the logger still exists, but writes to io.Discard,
// so hooks attached by the TUI keep receiving entries.
func Setup() error {
	logger := logrus.StandardLogger()

	lvl, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if viper.GetBool(key.LogsJson) {
		logger.SetFormatter(&logrus.JSONFormatter{PrettyPrint: true})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		logger.SetOutput(io.Discard)
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)

	return nil
}

// Logger returns the configured application logger.
func Logger() *logrus.Logger {
	return logrus.StandardLogger()
}

// Component returns a logger tagged with the given component name.
// It is what gets injected into the fetcher, resolver and downloader.
func Component(name string) logrus.FieldLogger {
	return logrus.StandardLogger().WithField("component", name)
}

// Discard returns a logger that drops everything. Useful for tests and library callers.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func Error(args ...any) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
