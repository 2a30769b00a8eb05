package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "info", false)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	runnerLog := Component(log, "runner")
	runnerLog.Info().Str("asset", "DEMO").Msg("analysis complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "runner" {
		t.Errorf("Expected component runner, got %v", entry["component"])
	}
	if entry["asset"] != "DEMO" {
		t.Errorf("Expected asset DEMO, got %v", entry["asset"])
	}
	if entry["level"] != "info" {
		t.Errorf("Expected level info, got %v", entry["level"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("Expected timestamp field")
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn", false)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Expected info message to be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Expected warn message to be written")
	}
}

func TestNewWithWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "debug", true)
	if err != nil {
		t.Fatalf("NewWithWriter failed: %v", err)
	}

	log.Debug().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") {
		t.Errorf("Expected message in console output, got %q", out)
	}
	if strings.HasPrefix(out, "{") {
		t.Errorf("Expected console format, got JSON %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
