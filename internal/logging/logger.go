// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package logging wires the console logger and the append-only operations
// log under ~/.wp-deploy/logs/operations.log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	clog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the package-level logger. Callers should use the helper functions
// below for compatibility with existing calls.
var L = clog.New(os.Stderr)

// fileSink is the rotating operations log, attached by Init.
var fileSink *lumberjack.Logger

// Init attaches the rotating operations.log file sink under dir (the
// wp-deploy state directory) and applies the configured level. Safe to call
// more than once; the last call wins.
func Init(dir, level string) error {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory %s: %w", logDir, err)
	}

	fileSink = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "operations.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}
	L.SetOutput(io.MultiWriter(os.Stderr, fileSink))
	L.SetReportTimestamp(true)

	switch level {
	case "debug":
		L.SetLevel(clog.DebugLevel)
	case "warn":
		L.SetLevel(clog.WarnLevel)
	case "error":
		L.SetLevel(clog.ErrorLevel)
	default:
		L.SetLevel(clog.InfoLevel)
	}
	return nil
}

// Debugf logs a debug-level formatted message.
func Debugf(format string, v ...interface{}) {
	L.Debug(fmt.Sprintf(format, v...))
}

// Infof logs an info-level formatted message.
func Infof(format string, v ...interface{}) {
	L.Info(fmt.Sprintf(format, v...))
}

// Warnf logs a warning-level formatted message.
func Warnf(format string, v ...interface{}) {
	L.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs an error-level formatted message.
func Errorf(format string, v ...interface{}) {
	L.Error(fmt.Sprintf(format, v...))
}
