package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), &Config{Path: filepath.Join(t.TempDir(), "runs.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateFinishGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run, err := s.Create(ctx, "solar energy", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if run.Status != StatusRunning || run.Trigger != "api" || run.ID == "" {
		t.Fatalf("unexpected run %+v", run)
	}

	err = s.Finish(ctx, run.ID, Result{
		Status:     StatusSuccess,
		OutputFile: "research_outputs/research_summary_20260101_120000.md",
		Sources:    []string{"https://a.example", "https://b.example"},
	})
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	got, err := s.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusSuccess || got.Topic != "solar energy" {
		t.Fatalf("unexpected run %+v", got)
	}
	if len(got.Sources) != 2 || got.Sources[1] != "https://b.example" {
		t.Fatalf("unexpected sources %v", got.Sources)
	}
	if got.FinishedAt.IsZero() || !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("unexpected timestamps %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Finish(context.Background(), "nope", Result{Status: StatusError}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on finish, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	s.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	for _, topic := range []string{"first", "second", "third"} {
		if _, err := s.Create(ctx, topic, "schedule"); err != nil {
			t.Fatalf("create %s: %v", topic, err)
		}
	}
	runs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].Topic != "third" || runs[1].Topic != "second" {
		t.Fatalf("unexpected order %+v", runs)
	}
	if runs[0].Trigger != "schedule" || len(runs[0].Sources) != 0 {
		t.Fatalf("unexpected run %+v", runs[0])
	}
}

func TestListEmpty(t *testing.T) {
	runs, err := openTestStore(t).List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", runs)
	}
}
