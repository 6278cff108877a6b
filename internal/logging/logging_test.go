package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"dev":     slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"prod":    slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for name, want := range tests {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInitWriterFiltersByLevel(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter(&buf, "warn")
	slog.Info("room created", "room", "R1")
	slog.Warn("send queue full", "conn", "c1")

	out := buf.String()
	if strings.Contains(out, "room created") {
		t.Errorf("info line logged at warn level: %s", out)
	}
	if !strings.Contains(out, "send queue full") || !strings.Contains(out, "conn=c1") {
		t.Errorf("warn line missing: %s", out)
	}
}
