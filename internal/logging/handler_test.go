package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLineHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: buf,
		format: formatKV,
	})

	log := slog.New(handler).With("component", "confession")
	log.Info("confession.approved",
		slog.String("status", "ok"),
		slog.Int64("confession_id", 7),
		slog.Int64("user_id", 42),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=confession", "event=confession.approved", "status=ok", "user_id=42", "confession_id=7"}
	if len(tokens) != len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestLineHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: buf,
		format: formatJSON,
	})

	log := slog.New(handler).With("component", "moderation")
	log.Error("grant.denied",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "NOT_AUTHORIZED"),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"moderation"`, `"event":"grant.denied"`, `"status":"fail"`, `"err":"boom"`, `"err_code":"NOT_AUTHORIZED"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestLineHandlerDurationNormalized(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: buf,
		format: formatKV,
	})

	slog.New(handler).Debug("op.done", slog.Duration("duration", 1500000))
	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected normalized duration key, got %s", line)
	}
}

func TestLineHandlerPrunesEmptyStrings(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: buf,
		format: formatKV,
	})

	slog.New(handler).Info("evt", slog.String("err", ""))
	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("empty attr should be pruned, got %s", buf.String())
	}
}
