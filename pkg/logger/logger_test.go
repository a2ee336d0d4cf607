package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_LevelFiltering(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")

	l.Debug("debug %d", 1)
	l.Info("info %d", 2)
	req.Empty(buf.String())

	l.Warn("warn %d", 3)
	l.Error("error %d", 4)
	out := buf.String()
	req.Contains(out, "warn 3")
	req.Contains(out, "error 4")
	req.Contains(out, "level=WARN")
	req.Contains(out, "level=ERROR")
}

func TestLogger_JSONRecordsCallerSource(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")

	l.Info("user %s online", "alice")

	var record struct {
		Msg    string `json:"msg"`
		Level  string `json:"level"`
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	req.NoError(json.Unmarshal(buf.Bytes(), &record))
	req.Equal("user alice online", record.Msg)
	req.Equal("INFO", record.Level)
	req.True(strings.HasSuffix(record.Source.File, "logger_test.go"), record.Source.File)
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	l := New(&buf, "verbose", "text")

	l.Debug("hidden")
	l.Info("shown")
	req.NotContains(buf.String(), "hidden")
	req.Contains(buf.String(), "shown")
}

func TestPackageHelpersUseGlobalLogger(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	prev := GlobalLogger
	GlobalLogger = New(&buf, "debug", "text")
	t.Cleanup(func() { GlobalLogger = prev })

	Debug("d")
	Info("i")
	Warn("w")
	Error("e")

	out := buf.String()
	for _, want := range []string{"msg=d", "msg=i", "msg=w", "msg=e", "logger_test.go"} {
		req.Contains(out, want)
	}
}
