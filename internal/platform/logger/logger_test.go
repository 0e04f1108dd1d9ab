package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogger_TextFormatSortedKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, Format: FormatText, App: "vet", Output: &buf})

	l.Info("hola", map[string]any{"b": 2, "a": 1})

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "a=1 app=vet b=2 level=info msg=hola") {
		t.Fatalf("unexpected line: %s", line)
	}
}

func TestLogger_JSONAndErrors(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, Output: &buf})

	l.With(map[string]any{"request_id": "r-1"}).Error("boom", map[string]any{"error": errors.New("bad")})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json: %v (%s)", err, buf.String())
	}
	if entry["error"] != "bad" || entry["request_id"] != "r-1" || entry["level"] != "error" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestLogger_SetLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	root := New(Options{Level: Warn, Output: &buf})
	child := root.With(map[string]any{"k": "v"})

	child.Info("oculto", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	root.SetLevel(Debug)
	child.Debug("visible", nil)
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Fatalf("expected child to follow new level, got %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	ctx := WithContext(context.Background(), l)
	FromContext(ctx, nil).Info("desde ctx", nil)
	if !strings.Contains(buf.String(), "desde ctx") {
		t.Fatalf("expected logger from context to be used")
	}

	if FromContext(context.Background(), nil) == nil {
		t.Fatalf("expected nop fallback, got nil")
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	cases := map[string]Level{"debug": Debug, "": Info, "WARNING": Warn, "error": Error, "raro": Info}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseFormat("JSON") != FormatJSON || ParseFormat("x") != FormatText {
		t.Errorf("unexpected ParseFormat result")
	}
}
