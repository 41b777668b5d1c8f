package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	if Log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %s, want debug", Log.GetLevel())
	}

	SetLevel("not-a-level")
	if Log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("invalid level should fall back to info, got %s", Log.GetLevel())
	}

	SetLevel("")
	if Log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("empty level should mean info, got %s", Log.GetLevel())
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info().Str("backend", "local").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"backend":"local"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("unexpected log line: %s", out)
	}
}
