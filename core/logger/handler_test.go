package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	}), aw
}

func drain(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKVLineFollowsKeyOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatKV)

	ctx := WithRID(context.Background(), "rid-kv")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	log := slog.New(h).With("component", "tg.autoreturn")
	LogEvent(ctx, log, slog.LevelInfo, "autoreturn.armed",
		slog.String("scope", "global"),
		slog.Duration("delay", 20*time.Second),
	)
	drain(t, aw)

	tokens := strings.Fields(strings.TrimSpace(buf.String()))
	want := []string{
		"ts=", "level=INFO", "component=tg.autoreturn", "event=autoreturn.armed",
		"rid=rid-kv", "update_id=42", "user_id=7", "chat_id=9", "scope=global", "delay_ms=20000",
	}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONLineCompactsRID(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatJSON)

	rid := BuildRID(100, 36, 72)
	ctx := WithRID(context.Background(), rid)
	log := slog.New(h).With("component", "tg")
	LogEvent(ctx, log, slog.LevelError, "send.failed",
		slog.String("outcome", "FAIL"),
		slog.String("err", "boom"),
	)
	drain(t, aw)

	line := strings.TrimSpace(buf.String())
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if m["rid"] != "2s.10.20" {
		t.Fatalf("rid = %v", m["rid"])
	}
	if m["rid_full"] != rid {
		t.Fatalf("rid_full = %v", m["rid_full"])
	}
	if m["outcome"] != "fail" {
		t.Fatalf("outcome = %v", m["outcome"])
	}
	if _, ok := m["ts_unix_nano"]; !ok {
		t.Fatal("json line must carry ts_unix_nano")
	}
	if !strings.HasPrefix(line, `{"ts":`) {
		t.Fatalf("ts must lead: %s", line)
	}
}

func TestUnknownOutcomeIsDropped(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatKV)
	slog.New(h).Info("menu.rendered", "outcome", "weird", "view", "about", "empty", "  ")
	drain(t, aw)

	line := buf.String()
	if strings.Contains(line, "outcome=") || strings.Contains(line, "empty=") {
		t.Fatalf("unexpected fields: %s", line)
	}
	if !strings.Contains(line, "event=menu.rendered") || !strings.Contains(line, "component=app") {
		t.Fatalf("missing defaults: %s", line)
	}
}

func TestGroupsFlattenIntoDottedKeys(t *testing.T) {
	buf := &bytes.Buffer{}
	h, aw := newTestHandler(buf, formatKV)
	slog.New(h).WithGroup("limit").Info("throttle.rejected", "window", 2500*time.Millisecond)
	drain(t, aw)

	if !strings.Contains(buf.String(), "limit.window_ms=2500") {
		t.Fatalf("line = %s", buf.String())
	}
}

func TestLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: aw, format: formatKV})
	log := slog.New(h)
	log.Info("dropped")
	log.Warn("kept")
	drain(t, aw)

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "event=kept") {
		t.Fatalf("line = %s", buf.String())
	}
}

func TestKVQuotesValuesWithSpaces(t *testing.T) {
	line := string(formatKVLine(map[string]any{"event": "x", "err": "not found"}, defaultKeyOrder))
	if line != `event=x err="not found"` {
		t.Fatalf("line = %s", line)
	}
}

func TestCompactRIDLeavesForeignValues(t *testing.T) {
	for _, rid := range []string{"abc", "1:2", "a:b:c"} {
		if got := CompactRID(rid); got != rid {
			t.Fatalf("CompactRID(%q) = %q", rid, got)
		}
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
	if n, d := parseRatioSpec("2/10"); n != 2 || d != 10 {
		t.Fatalf("parse = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("25"); n != 1 || d != 25 {
		t.Fatalf("parse = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("x/y"); n != 0 || d != 0 {
		t.Fatalf("parse = %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\nd", 10); got != "abc\nd" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("got %q", got)
	}
}
