// Package applog configures the process-wide logger. Log lines go to the
// console and to a rotated file under the app directory so sync failures can
// be diagnosed after the window is closed.
package applog

import (
	"io"
	"os"
	"path/filepath"

	"kakehashi/constants"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init wires logrus to stderr plus a rotating file and returns the logger.
// A missing home directory degrades to console-only logging.
func Init() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	home, err := os.UserHomeDir()
	if err != nil {
		log.WithError(err).Warn("user home dir unavailable, logging to console only")
		return log
	}

	logDir := filepath.Join(home, constants.AppDir, constants.LogsDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.WithError(err).Warn("failed to create log directory, logging to console only")
		return log
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "kakehashi.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	return log
}
