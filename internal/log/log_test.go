package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelWarn)
	defer SetLevel(LevelInfo)

	Info("hidden", "k", 1)
	Warn("shown", "k", 2)
	Error("failed", errors.New("boom"), "id", "a1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at WARN: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown k=2") {
		t.Fatalf("missing warn line: %q", out)
	}
	if !strings.Contains(out, "[ERROR] failed err=boom id=a1") {
		t.Fatalf("missing error line: %q", out)
	}
}

func TestQuotedValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelDebug)
	defer SetLevel(LevelInfo)

	Debug("move", "title", "Gym Session", "odd")
	if !strings.Contains(buf.String(), `title="Gym Session"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" Warn ":  LevelWarn,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%s, want %s", in, got, want)
		}
	}
}
