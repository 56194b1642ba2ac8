package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_DefaultsToInfoLevel(t *testing.T) {
	log := New()

	if log.logger == nil {
		t.Fatal("expected slog.Logger to be set")
	}
	if log.GetLevel() != slog.LevelInfo {
		t.Errorf("expected Info, got %v", log.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestSlogLogger_LogMethods(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelDebug)

	tests := []struct {
		name  string
		fn    func(string, ...any)
		level string
	}{
		{"Debug", log.Debug, "DEBUG"},
		{"Info", log.Info, "INFO"},
		{"Warn", log.Warn, "WARN"},
		{"Error", log.Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn("ballot accepted", "vote_id", "v-1")

			output := buf.String()
			if !strings.Contains(output, tt.level) {
				t.Errorf("expected output to contain %q, got: %s", tt.level, output)
			}
			if !strings.Contains(output, "ballot accepted") {
				t.Errorf("expected output to contain message, got: %s", output)
			}
			if !strings.Contains(output, "vote_id=v-1") {
				t.Errorf("expected output to contain vote_id=v-1, got: %s", output)
			}
		})
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)

	log.Debug("debug message")
	log.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("expected debug/info to be filtered at WARN level, got: %s", buf.String())
	}

	log.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("expected warn message to be logged")
	}

	// Raising verbosity at runtime takes effect immediately
	buf.Reset()
	log.SetLevel(slog.LevelDebug)
	log.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("expected debug message after SetLevel")
	}
}

func TestSlogLogger_WithSharesLevelAndToggle(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, slog.LevelInfo)
	child := parent.With("venue_id", "rack-em")

	child.Info("vote opened")
	if !strings.Contains(buf.String(), "venue_id=rack-em") {
		t.Errorf("expected child attributes in output, got: %s", buf.String())
	}

	parent.SetLevel(slog.LevelError)
	if child.GetLevel() != slog.LevelError {
		t.Errorf("expected child to follow parent level, got %v", child.GetLevel())
	}

	parent.EnableHTTPLogging()
	if !child.IsHTTPLoggingEnabled() {
		t.Error("expected child to share HTTP logging toggle")
	}
}

func TestSlogLogger_HTTPLogging(t *testing.T) {
	log := New()

	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be disabled by default")
	}
	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be enabled")
	}
	log.DisableHTTPLogging()
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging to be disabled")
	}
}

func TestDiscard_DropsRecords(t *testing.T) {
	log := Discard()
	log.Error("nothing to see")
	if log.GetLevel() != slog.LevelError {
		t.Errorf("expected error level, got %v", log.GetLevel())
	}
}
