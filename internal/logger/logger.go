// Package logger is a small leveled wrapper around log/slog shared by the
// ingestion and sync engines.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	levelVar   slog.LevelVar
	loggerMu   sync.RWMutex
	baseLogger *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	baseLogger = newLogger(os.Stderr)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
	return slog.New(handler)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	baseLogger = newLogger(w)
	loggerMu.Unlock()
}

// SetFile sends log output to a size-rotated file. An empty path keeps the
// current output.
func SetFile(path string, maxSizeMB, maxBackups int) io.Closer {
	path = strings.TrimSpace(path)
	if path == "" {
		return io.NopCloser(nil)
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	SetOutput(w)
	return w
}

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// Logger returns the current slog logger for callers that want attributes.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return baseLogger
}

func Debugf(format string, v ...any) {
	Logger().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	Logger().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	Logger().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	Logger().Error(fmt.Sprintf(format, v...))
}
