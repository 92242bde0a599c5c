package cron

import (
	"testing"
	"time"
)

func TestNextRunAtMs(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC).UnixMilli()
	anchor := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC).UnixMilli()

	cases := []struct {
		name     string
		schedule Schedule
		want     *time.Time
	}{
		{"cron utc", Schedule{Kind: "cron", Expr: "0 12 * * *"}, timePtr(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))},
		{"cron tz", Schedule{Kind: "cron", Expr: "0 9 * * *", TZ: "America/New_York"}, timePtr(time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC))},
		{"descriptor", Schedule{Kind: "cron", Expr: "@daily"}, timePtr(time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))},
		{"every anchored", Schedule{Kind: "every", EveryMs: time.Hour.Milliseconds(), AnchorMs: &anchor}, timePtr(time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC))},
		{"at future", Schedule{Kind: "at", AtMs: now + 1000}, timePtr(time.UnixMilli(now + 1000).UTC())},
		{"at past", Schedule{Kind: "at", AtMs: now - 1000}, nil},
		{"bad expr", Schedule{Kind: "cron", Expr: "not cron"}, nil},
		{"unknown kind", Schedule{Kind: "weekly"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextRunAtMs(tc.schedule, now)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", time.UnixMilli(*got).UTC())
				}
				return
			}
			if got == nil || *got != tc.want.UnixMilli() {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestNormalizeSchedule(t *testing.T) {
	s := Schedule{Every: "6h"}
	if err := NormalizeSchedule(&s); err != nil {
		t.Fatalf("normalize every: %v", err)
	}
	if s.Kind != "every" || s.EveryMs != 6*time.Hour.Milliseconds() {
		t.Fatalf("unexpected schedule %+v", s)
	}

	s = Schedule{Expr: "0 8 * * 1-5", TZ: "Europe/Berlin"}
	if err := NormalizeSchedule(&s); err != nil || s.Kind != "cron" {
		t.Fatalf("unexpected cron schedule %+v (%v)", s, err)
	}

	bad := []Schedule{
		{},
		{Every: "30s"},
		{Every: "soon"},
		{Expr: "61 * * * *"},
		{Expr: "0 8 * * *", TZ: "Mars/Olympus"},
		{Kind: "at"},
		{Kind: "weekly"},
	}
	for _, schedule := range bad {
		if err := NormalizeSchedule(&schedule); err == nil {
			t.Fatalf("expected error for %+v", schedule)
		}
	}
}

func TestParseDurationMs(t *testing.T) {
	cases := map[string]int64{
		"250ms": 250,
		"2s":    2000,
		"90":    90 * 60_000,
		"1.5h":  90 * 60_000,
		"1d":    86_400_000,
	}
	for in, want := range cases {
		got, err := parseDurationMs(in, "m")
		if err != nil || got != want {
			t.Fatalf("parseDurationMs(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "-1h", "1w", "h"} {
		if _, err := parseDurationMs(in, "m"); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
