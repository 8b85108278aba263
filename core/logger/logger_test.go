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

func captureLine(t *testing.T, format logFormat, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{buf}, 8)
	emit(slog.New(newStructuredHandler(slog.LevelDebug, w, format, nil)))
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVLineOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "router"), slog.LevelInfo, "code.redeem",
			slog.String("status", "OK"),
			slog.String("org", "ORG1"),
		)
	})
	want := []string{"ts=", "level=INFO", "component=router", "event=code.redeem", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "org=ORG1"}
	tokens := strings.Fields(line)
	if len(tokens) < len(want) {
		t.Fatalf("short line: %s", line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s (line %s)", i, tokens[i], prefix, line)
		}
	}
}

func TestJSONLineCompactsRID(t *testing.T) {
	ctx := WithRID(context.Background(), BuildRID(12, 34, 56))
	line := captureLine(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelError, "save.failed", slog.String("err", "boom"))
	})
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("decode %s: %v", line, err)
	}
	if fields["rid"] != CompactRID("12:34:56") || fields["rid_full"] != "12:34:56" {
		t.Fatalf("unexpected rid fields: %v", fields)
	}
	if fields["level"] != "ERROR" || fields["component"] != "app" || fields["ts_unix_nano"] == nil {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if !strings.HasPrefix(line, `{"ts":`) {
		t.Fatalf("ts must lead: %s", line)
	}
}

func TestKVLineOmitsFullRID(t *testing.T) {
	ctx := WithRID(context.Background(), "1:2:3")
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "x")
	})
	if !strings.Contains(line, "rid=1.2.3") || strings.Contains(line, "rid_full") {
		t.Fatalf("unexpected rid rendering: %s", line)
	}
}

func TestDurationsGroupsAndOutcome(t *testing.T) {
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("db").Info("", slog.String("event", "q"), slog.Duration("duration", 1500*time.Microsecond))
		l.Info("handled", slog.String("outcome", "weird"), slog.String("msg", "a b"))
	})
	lines := strings.Split(line, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", line)
	}
	if !strings.Contains(lines[0], "db.duration_ms=2") || !strings.Contains(lines[0], "db.event=q") {
		t.Fatalf("group not flattened: %s", lines[0])
	}
	if strings.Contains(lines[1], "outcome=") {
		t.Fatalf("unknown outcome must be dropped: %s", lines[1])
	}
	if !strings.Contains(lines[1], "event=handled") || !strings.Contains(lines[1], `msg="a b"`) {
		t.Fatalf("unexpected line: %s", lines[1])
	}
}

func TestContextMetaIsCopied(t *testing.T) {
	base := WithRID(context.Background(), "a")
	child := WithHandler(base, "callback.files")
	if RIDFrom(child) != "a" || metaFrom(child).handler != "callback.files" {
		t.Fatalf("child lost meta: %+v", metaFrom(child))
	}
	if metaFrom(base).handler != "" {
		t.Fatal("parent context must not see child values")
	}
	if UserIDFrom(context.Background()) != 0 || RIDFrom(context.Background()) != "" {
		t.Fatal("empty contexts carry no meta")
	}
}

func TestSamplerRatio(t *testing.T) {
	var s ratioSampler
	s.set(parseSampleRatio("2/5"))
	allowed := 0
	for i := 0; i < 10; i++ {
		if s.allow() {
			allowed++
		}
	}
	if allowed != 4 {
		t.Fatalf("allowed %d of 10, want 4", allowed)
	}
	s.set(parseSampleRatio("off"))
	if !s.allow() {
		t.Fatal("disabled sampling lets everything through")
	}
	if k, e := parseSampleRatio("junk"); k != 1 || e != 50 {
		t.Fatalf("fallback ratio = %d/%d", k, e)
	}
	if k, e := parseSampleRatio("10"); k != 1 || e != 10 {
		t.Fatalf("bare ratio = %d/%d", k, e)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	w := newAsyncWriter([]io.Writer{io.Discard}, 1)
	if err := w.Write([]byte("a\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	_ = w.Close()
	if err := w.Write([]byte("b\n")); err != errWriterClosed {
		t.Fatalf("expected closed error, got %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush after close: %v", err)
	}
}

func TestSanitizeLimitAndCompactRID(t *testing.T) {
	if got := SanitizeLimit("a\x00b\tc\u200bd", 10); got != "ab\tcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("héllo", 2); got != "hé" {
		t.Fatalf("SanitizeLimit rune cut = %q", got)
	}
	if got := CompactRID("35:36:0"); got != "z.10.0" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("req-1"); got != "req-1" {
		t.Fatalf("non-update rid changed: %q", got)
	}
}
