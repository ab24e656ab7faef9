// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Tests that reconfigure the global logger run sequentially; none of
// them may call t.Parallel.

// logLines decodes every JSON line written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not JSON: %v\nline: %s", err, raw)
		}
		lines = append(lines, line)
	}
	return lines
}

// oneLine asserts exactly one log line was written and decodes it.
func oneLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := logLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}
	return lines[0]
}

// initCapture points the global logger at a buffer for the duration of
// the test and restores the defaults afterward.
func initCapture(t *testing.T, cfg Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	cfg.Output = &buf
	Init(cfg)
	t.Cleanup(func() { Init(DefaultConfig()) })
	return &buf
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Caller {
		t.Error("Caller should default to false")
	}
	if cfg.NoTimestamp {
		t.Error("timestamps should be on by default")
	}
	if cfg.Output != os.Stderr {
		t.Error("Output should default to os.Stderr")
	}
}

func TestInit_WritesJSON(t *testing.T) {
	buf := initCapture(t, Config{Level: "info", Format: "json"})

	Info().Str("source", "gate-cam").Msg("Frame assessed")

	line := oneLine(t, buf)
	if line["level"] != "info" {
		t.Errorf("level = %v, want info", line["level"])
	}
	if line["message"] != "Frame assessed" {
		t.Errorf("message = %v, want 'Frame assessed'", line["message"])
	}
	if line["source"] != "gate-cam" {
		t.Errorf("source = %v, want gate-cam", line["source"])
	}
	if _, ok := line["time"]; !ok {
		t.Error("timestamped config should emit a time field")
	}
}

func TestInit_NoTimestamp(t *testing.T) {
	buf := initCapture(t, Config{Level: "info", NoTimestamp: true})

	Info().Msg("no clock")

	line := oneLine(t, buf)
	if _, ok := line["time"]; ok {
		t.Errorf("NoTimestamp should omit the time field: %v", line)
	}
}

func TestInit_LevelFiltering(t *testing.T) {
	buf := initCapture(t, Config{Level: "warn"})

	Debug().Msg("suppressed debug")
	Info().Msg("suppressed info")
	Warn().Msg("emitted warn")
	Error().Msg("emitted error")

	lines := logLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines at warn level, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Errorf("unexpected levels: %v, %v", lines[0]["level"], lines[1]["level"])
	}
}

func TestSetLogger_LevelIndependentOfInit(t *testing.T) {
	// Init carries the level on the logger instance, so a logger swapped
	// in afterward is filtered only by its own level.
	initCapture(t, Config{Level: "error"})

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))
	t.Cleanup(func() { Init(DefaultConfig()) })

	Debug().Msg("visible despite the earlier error-level Init")

	if !strings.Contains(buf.String(), "visible despite") {
		t.Errorf("swapped logger should not inherit Init's level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"ERROR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	buf := initCapture(t, Config{Level: "info", Format: "console"})

	Info().Str("source", "gate-cam").Msg("console line")

	out := buf.String()
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("console format should not emit JSON: %q", out)
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("console output missing message: %q", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("k", "v").Msg("captured")

	line := oneLine(t, &buf)
	if line["message"] != "captured" || line["k"] != "v" {
		t.Errorf("unexpected line: %v", line)
	}
	if _, ok := line["time"]; !ok {
		t.Error("test logger should timestamp lines")
	}
}
