package cron

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingRunner struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (r *recordingRunner) run(_ context.Context, job Job) (RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, job.Topic)
	if r.err != nil {
		return RunResult{}, r.err
	}
	return RunResult{RunID: "run-" + job.ID, OutputFile: "research_outputs/x.md"}, nil
}

func newTestScheduler(t *testing.T, runner *recordingRunner) (*Scheduler, *int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.json5")
	s := NewScheduler(&Config{StorePath: path}, runner.run, zerolog.Nop())
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	s.nowMs = func() int64 { return now }
	return s, &now
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	runner := &recordingRunner{}
	s, now := newTestScheduler(t, runner)

	job, err := s.AddJob(Job{ID: "solar", Topic: " solar energy ", Enabled: true, Schedule: Schedule{Every: "1h"}})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if job.Topic != "solar energy" || job.State.NextRunAtMs == nil || *job.State.NextRunAtMs != *now+time.Hour.Milliseconds() {
		t.Fatalf("unexpected job %+v", job)
	}

	if ran, err := s.RunDue(context.Background()); err != nil || ran != 0 {
		t.Fatalf("expected nothing due, got %d (%v)", ran, err)
	}

	*now += time.Hour.Milliseconds()
	if ran, err := s.RunDue(context.Background()); err != nil || ran != 1 {
		t.Fatalf("expected one run, got %d (%v)", ran, err)
	}
	if len(runner.topics) != 1 || runner.topics[0] != "solar energy" {
		t.Fatalf("unexpected runs %v", runner.topics)
	}

	jobs, err := s.Jobs()
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	state := jobs[0].State
	if state.LastStatus != "success" || state.LastRunID != "run-solar" || state.RunningAtMs != nil {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.NextRunAtMs == nil || *state.NextRunAtMs != *now+time.Hour.Milliseconds() {
		t.Fatalf("unexpected next run %v", state.NextRunAtMs)
	}

	entries, err := ReadRunLog(ResolveRunLogPath(s.cfg.StorePath, "solar"), 10)
	if err != nil || len(entries) != 1 || entries[0].RunID != "run-solar" || entries[0].OutputFile == "" {
		t.Fatalf("unexpected run log %+v (%v)", entries, err)
	}
}

func TestSchedulerRecordsFailures(t *testing.T) {
	runner := &recordingRunner{err: errors.New("Search tool did not return any results")}
	s, _ := newTestScheduler(t, runner)
	if _, err := s.AddJob(Job{ID: "a", Topic: "x", Enabled: true, Schedule: Schedule{Every: "2h"}}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	result, err := s.RunNow(context.Background(), "a")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if result.Status != "error" || result.Error != "Search tool did not return any results" {
		t.Fatalf("unexpected result %+v", result)
	}
	jobs, _ := s.Jobs()
	if jobs[0].State.LastStatus != "error" || jobs[0].State.LastError == "" {
		t.Fatalf("unexpected state %+v", jobs[0].State)
	}
	if _, err := s.RunNow(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestSchedulerOneShotJobs(t *testing.T) {
	runner := &recordingRunner{}
	s, now := newTestScheduler(t, runner)
	at := *now + 60_000
	if _, err := s.AddJob(Job{ID: "keep", Topic: "a", Enabled: true, Schedule: Schedule{AtMs: at}}); err != nil {
		t.Fatalf("AddJob keep: %v", err)
	}
	if _, err := s.AddJob(Job{ID: "drop", Topic: "b", Enabled: true, DeleteAfterRun: true, Schedule: Schedule{AtMs: at}}); err != nil {
		t.Fatalf("AddJob drop: %v", err)
	}
	*now = at
	if ran, _ := s.RunDue(context.Background()); ran != 2 {
		t.Fatalf("expected two runs, got %d", ran)
	}
	jobs, _ := s.Jobs()
	if len(jobs) != 1 || jobs[0].ID != "keep" || jobs[0].Enabled || jobs[0].State.NextRunAtMs != nil {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
	if ran, _ := s.RunDue(context.Background()); ran != 0 {
		t.Fatal("one-shot job ran twice")
	}
}

func TestSchedulerLoadsHandWrittenFile(t *testing.T) {
	runner := &recordingRunner{}
	s, _ := newTestScheduler(t, runner)
	content := `{
  // weekday morning briefing
  version: 1,
  jobs: [
    {id: "brief", topic: "AI regulation news", enabled: true, schedule: {expr: "0 8 * * 1-5", tz: "UTC"}},
    {id: "broken", topic: "x", enabled: true, schedule: {expr: "whenever"}},
    {id: "stale", topic: "y", enabled: true, schedule: {every: "1h"}, state: {runningAtMs: 5}},
  ],
}`
	if err := os.WriteFile(s.cfg.StorePath, []byte(content), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if err := s.recompute(); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	jobs, err := s.Jobs()
	if err != nil || len(jobs) != 3 {
		t.Fatalf("unexpected jobs %+v (%v)", jobs, err)
	}
	if jobs[0].Schedule.Kind != "cron" || jobs[0].State.NextRunAtMs == nil {
		t.Fatalf("expected scheduled cron job, got %+v", jobs[0])
	}
	if jobs[1].Enabled {
		t.Fatal("expected invalid job to be disabled")
	}
	if jobs[2].State.RunningAtMs != nil || jobs[2].State.NextRunAtMs == nil {
		t.Fatalf("expected stale marker cleared, got %+v", jobs[2].State)
	}
}

func TestLoadStoreErrors(t *testing.T) {
	dir := t.TempDir()
	store, err := LoadStore(filepath.Join(dir, "missing.json5"))
	if err != nil || len(store.Jobs) != 0 || store.Version != 1 {
		t.Fatalf("expected empty store, got %+v (%v)", store, err)
	}
	bad := filepath.Join(dir, "bad.json5")
	_ = os.WriteFile(bad, []byte("{jobs: ["), 0o644)
	if _, err := LoadStore(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRemoveJob(t *testing.T) {
	s, _ := newTestScheduler(t, &recordingRunner{})
	if _, err := s.AddJob(Job{ID: "a", Topic: "x", Schedule: Schedule{Expr: "@hourly"}}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if _, err := s.AddJob(Job{ID: "a", Topic: "x", Schedule: Schedule{Expr: "@hourly"}}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if err := s.RemoveJob("a"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	if err := s.RemoveJob("a"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
