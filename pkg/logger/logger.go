package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type Logger struct {
	handler slog.Handler
}

// New builds a logger writing to w. Level is one of debug, info, warn, error;
// format is "text" or "json".
func New(w io.Writer, level, format string) *Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl, AddSource: true}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{handler: handler}
}

func (l *Logger) Info(format string, v ...any) {
	l.output(slog.LevelInfo, format, v...)
}

func (l *Logger) Warn(format string, v ...any) {
	l.output(slog.LevelWarn, format, v...)
}

func (l *Logger) Error(format string, v ...any) {
	l.output(slog.LevelError, format, v...)
}

func (l *Logger) Debug(format string, v ...any) {
	l.output(slog.LevelDebug, format, v...)
}

func (l *Logger) Fatal(format string, v ...any) {
	l.output(slog.LevelError, format, v...)
	os.Exit(1)
}

// output must be called directly from an exported method or helper so the
// recorded source is the line that logged.
func (l *Logger) output(level slog.Level, format string, v ...any) {
	ctx := context.Background()
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, v...), pcs[0])
	_ = l.handler.Handle(ctx, r)
}

// Global logger instance
var GlobalLogger = New(os.Stdout, "info", "text")

// Configure replaces the global logger. Call it once at startup before any
// goroutine starts logging.
func Configure(level, format string) {
	GlobalLogger = New(os.Stdout, level, format)
}

// Convenience functions
func Info(format string, v ...any) {
	GlobalLogger.output(slog.LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	GlobalLogger.output(slog.LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	GlobalLogger.output(slog.LevelError, format, v...)
}

func Debug(format string, v ...any) {
	GlobalLogger.output(slog.LevelDebug, format, v...)
}

func Fatal(format string, v ...any) {
	GlobalLogger.output(slog.LevelError, format, v...)
	os.Exit(1)
}
