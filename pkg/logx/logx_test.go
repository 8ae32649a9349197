package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWithFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug").With(String("comp", "dispatch"))
	log.Info("cycle done", Int("sent", 3), Err(errors.New("boom")))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if m["comp"] != "dispatch" {
		t.Fatalf("comp = %v, want dispatch", m["comp"])
	}
	if m["sent"] != float64(3) {
		t.Fatalf("sent = %v, want 3", m["sent"])
	}
	if m["message"] != "cycle done" {
		t.Fatalf("message = %v", m["message"])
	}
	if _, ok := m["caller"]; !ok {
		t.Fatalf("caller missing: %v", m)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn not written: %q", buf.String())
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	t.Parallel()

	var l Logger
	if !l.IsZero() {
		t.Fatalf("IsZero = false")
	}
	l.Error("nothing happens")
}

func TestFormatTelegramJSON(t *testing.T) {
	t.Parallel()

	got := formatTelegramJSON([]byte(`{"level":"warn","time":"x","message":"send failed","user":"42","chat":"9"}`))
	want := "[WARN] send failed\n- chat=9\n- user=42"
	if got != want {
		t.Fatalf("formatTelegramJSON = %q, want %q", got, want)
	}
	if got := formatTelegramJSON([]byte("  plain  ")); got != "plain" {
		t.Fatalf("plain = %q", got)
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"info", true},
		{"WARNING", true},
		{"loud", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := ValidLevel(tt.in); got != tt.want {
				t.Fatalf("ValidLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
