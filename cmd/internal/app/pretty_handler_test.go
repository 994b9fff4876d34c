package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandler_PlainOutput(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, &slog.HandlerOptions{Level: slog.LevelDebug}, false)

	r := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelInfo, "http.request", 0)
	r.AddAttrs(
		slog.String("method", "post"),
		slog.Int("status", 204),
		slog.Int64("duration_ms", 12),
		slog.String("user_agent", "curl/8.0 test"),
	)

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := sb.String()
	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=POST",
		"status=204",
		"duration=12ms",
		`user_agent="curl/8.0 test"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("unexpected ANSI escapes in plain output: %q", got)
	}
}

func TestPrettyHandler_ColorOutput(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	h := newPrettyHandler(&sb, nil, true)

	r := slog.NewRecord(time.Now(), slog.LevelError, "server.fail", 0)
	r.AddAttrs(slog.Int("status", 500))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := sb.String()
	if !strings.Contains(got, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("error level not colorized: %q", got)
	}
	if !strings.Contains(got, ansiRed+"500"+ansiReset) {
		t.Fatalf("5xx status not colorized red: %q", got)
	}
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	base := newPrettyHandler(&sb, nil, false)
	h := base.WithAttrs([]slog.Attr{slog.String("app", "lablink")}).WithGroup("db")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "db.ready", 0)
	r.AddAttrs(slog.Int("conns", 4))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got := sb.String()
	if !strings.Contains(got, "db.conns=4") {
		t.Fatalf("group prefix missing: %q", got)
	}
	if !strings.Contains(got, "db.app=lablink") {
		t.Fatalf("inherited attr missing: %q", got)
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: `""`},
		{in: "plain", want: "plain"},
		{in: "has space", want: `"has space"`},
		{in: `k=v`, want: `"k=v"`},
	}
	for _, tc := range cases {
		if got := quoteIfNeeded(tc.in); got != tc.want {
			t.Fatalf("quoteIfNeeded(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestValueToInt64(t *testing.T) {
	t.Parallel()

	if n, ok := valueToInt64(slog.IntValue(42)); !ok || n != 42 {
		t.Fatalf("int: got %d %v", n, ok)
	}
	if n, ok := valueToInt64(slog.StringValue(" 7 ")); !ok || n != 7 {
		t.Fatalf("string: got %d %v", n, ok)
	}
	if _, ok := valueToInt64(slog.StringValue("nope")); ok {
		t.Fatalf("non-numeric string should not convert")
	}
	if _, ok := valueToInt64(slog.BoolValue(true)); ok {
		t.Fatalf("bool should not convert")
	}
}
