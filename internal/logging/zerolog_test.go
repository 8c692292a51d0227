package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*ZerologLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewJSONLogger(&buf, "debug"), &buf
}

func TestZerologLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		kv    string
	}{
		{"debug", "dbg", `"a":1`},
		{"info", "inf", `"b":2`},
		{"warn", "wrn", `"c":3`},
		{"error", "err", `"d":4`},
	}

	for _, tt := range tests {
		if !strings.Contains(out, `"level":"`+tt.level+`"`) {
			t.Errorf("output does not contain level %q: %s", tt.level, out)
		}
		if !strings.Contains(out, `"message":"`+tt.msg+`"`) {
			t.Errorf("output does not contain message %q: %s", tt.msg, out)
		}
		if !strings.Contains(out, tt.kv) {
			t.Errorf("output does not contain attribute %q: %s", tt.kv, out)
		}
	}
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should have been filtered: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestZerologLogger_With_AddsPermanentFields(t *testing.T) {
	log, buf := newTestLogger(t)
	child := log.With("module", "http_server")

	child.Info(context.Background(), "ready")

	out := buf.String()
	if !strings.Contains(out, `"module":"http_server"`) {
		t.Errorf("child logger output missing bound field: %s", out)
	}
}

func TestZerologLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "bogus")

	log.Debug(context.Background(), "dbg")
	log.Info(context.Background(), "inf")

	out := buf.String()
	if strings.Contains(out, "dbg") {
		t.Errorf("debug should be filtered at info level: %s", out)
	}
	if !strings.Contains(out, "inf") {
		t.Errorf("info message missing: %s", out)
	}
}
