package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{" WARNING ", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, WarnLevel)
	l.now = func() time.Time { return time.Date(2025, 4, 15, 19, 30, 0, 0, time.UTC) }

	l.Info("hidden %d", 1)
	l.Warn("offer to %s expired", "Petrov P.")

	if out.Len() != 0 {
		t.Errorf("info written below level: %q", out.String())
	}
	want := "[2025-04-15T19:30:00.000Z] WARN: offer to Petrov P. expired\n"
	if errOut.String() != want {
		t.Errorf("warn line = %q, want %q", errOut.String(), want)
	}

	l.SetLevel(DebugLevel)
	l.Debug("visible")
	if !strings.Contains(out.String(), "DEBUG: visible") {
		t.Errorf("debug line missing: %q", out.String())
	}
}
