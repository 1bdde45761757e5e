package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	stdlog "log"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestZerologAdapterWritesStructuredFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "server")

	logger.Info("request served",
		String("path", "/calculate"),
		Int("status", 200),
		Uint64("n", 93),
		Float64("ratio", 1.5),
		Bool("cached", true),
		Duration("took", 1500*time.Microsecond),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	for key, want := range map[string]any{
		"level":     "info",
		"message":   "request served",
		"component": "server",
		"path":      "/calculate",
		"status":    float64(200),
		"n":         float64(93),
		"cached":    true,
	} {
		if entry[key] != want {
			t.Errorf("field %q = %v, want %v", key, entry[key], want)
		}
	}
}

func TestZerologAdapterError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewZerologAdapter(zerolog.New(&buf)).Error("calculation failed", errors.New("boom"), String("algo", "matrix"))
	out := buf.String()
	for _, want := range []string{`"level":"error"`, `"error":"boom"`, `"algo":"matrix"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %s", out, want)
		}
	}
}

func TestStdLoggerAdapterFormatsFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewStdLoggerAdapter(stdlog.New(&buf, "", 0))

	logger.Warn("slow variant", String("algo", "recursive"), Uint64("n", 40))
	logger.Error("failed", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if lines[0] != "[WARN] slow variant algo=recursive n=40" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "[ERROR] failed: boom" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{" warn ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
