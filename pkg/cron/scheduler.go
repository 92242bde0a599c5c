// Package cron runs research topics on a schedule kept in a JSON5 file.
package cron

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollSeconds       = 60
	DefaultMaxConcurrentRuns = 1
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobRunning  = errors.New("job is already running")
)

// Config controls the scheduler.
type Config struct {
	Enabled           bool   `yaml:"enabled"`
	StorePath         string `yaml:"store_path"`
	MaxConcurrentRuns int    `yaml:"max_concurrent_runs"`
	// PollSeconds caps how long the loop sleeps, so hand edits of the file
	// are picked up.
	PollSeconds int `yaml:"poll_seconds"`
}

func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	c.StorePath = ResolveStorePath(c.StorePath)
	if c.MaxConcurrentRuns <= 0 {
		c.MaxConcurrentRuns = DefaultMaxConcurrentRuns
	}
	if c.PollSeconds <= 0 {
		c.PollSeconds = DefaultPollSeconds
	}
	return c
}

// RunFunc executes one job.
type RunFunc func(ctx context.Context, job Job) (RunResult, error)

// Scheduler runs due jobs through a RunFunc.
type Scheduler struct {
	cfg   *Config
	run   RunFunc
	log   zerolog.Logger
	nowMs func() int64
	wake  chan struct{}
}

func NewScheduler(cfg *Config, run RunFunc, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:   cfg.WithDefaults(),
		run:   run,
		log:   log.With().Str("component", "cron").Logger(),
		nowMs: func() int64 { return time.Now().UnixMilli() },
		wake:  make(chan struct{}, 1),
	}
}

func (s *Scheduler) withStore(fn func(store *StoreFile) (bool, error)) error {
	lock := storeLockForPath(s.cfg.StorePath)
	lock.Lock()
	defer lock.Unlock()
	store, err := LoadStore(s.cfg.StorePath)
	if err != nil {
		return err
	}
	changed, err := fn(&store)
	if err != nil {
		return err
	}
	if changed {
		return SaveStore(s.cfg.StorePath, store)
	}
	return nil
}

// Jobs returns the stored jobs.
func (s *Scheduler) Jobs() ([]Job, error) {
	var jobs []Job
	err := s.withStore(func(store *StoreFile) (bool, error) {
		jobs = slices.Clone(store.Jobs)
		return false, nil
	})
	return jobs, err
}

// AddJob validates and stores a job, assigning an ID when missing.
func (s *Scheduler) AddJob(job Job) (Job, error) {
	job.Topic = strings.TrimSpace(job.Topic)
	if job.Topic == "" {
		return Job{}, errors.New("job needs a topic")
	}
	if err := NormalizeSchedule(&job.Schedule); err != nil {
		return Job{}, err
	}
	now := s.nowMs()
	if job.ID == "" {
		job.ID = xid.New().String()
	}
	job.CreatedAtMs = now
	job.UpdatedAtMs = now
	job.State = JobState{}
	if job.Enabled {
		job.State.NextRunAtMs = NextRunAtMs(job.Schedule, now)
	}
	err := s.withStore(func(store *StoreFile) (bool, error) {
		if slices.ContainsFunc(store.Jobs, func(j Job) bool { return j.ID == job.ID }) {
			return false, fmt.Errorf("job %s already exists", job.ID)
		}
		store.Jobs = append(store.Jobs, job)
		return true, nil
	})
	if err != nil {
		return Job{}, err
	}
	s.Wake()
	return job, nil
}

// RemoveJob deletes a job.
func (s *Scheduler) RemoveJob(id string) error {
	return s.withStore(func(store *StoreFile) (bool, error) {
		idx := slices.IndexFunc(store.Jobs, func(j Job) bool { return j.ID == id })
		if idx < 0 {
			return false, ErrJobNotFound
		}
		store.Jobs = slices.Delete(store.Jobs, idx, idx+1)
		return true, nil
	})
}

// Wake makes the loop re-read the schedule now.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run loops until ctx is done, running due jobs. Jobs in progress when ctx
// ends see the cancellation and are waited for.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.recompute(); err != nil {
		return err
	}
	s.log.Info().Str("store_path", s.cfg.StorePath).Msg("Scheduler started")
	for {
		if _, err := s.RunDue(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to run due jobs")
		}
		timer := time.NewTimer(s.sleepDuration())
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("Scheduler stopped")
			return nil
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// recompute fills missing next-run times and clears running markers left by
// a previous process.
func (s *Scheduler) recompute() error {
	now := s.nowMs()
	return s.withStore(func(store *StoreFile) (bool, error) {
		changed := false
		for i := range store.Jobs {
			job := &store.Jobs[i]
			if err := NormalizeSchedule(&job.Schedule); err != nil {
				s.log.Warn().Err(err).Str("job_id", job.ID).Msg("Disabling job with invalid schedule")
				job.Enabled = false
				job.State.NextRunAtMs = nil
				changed = true
				continue
			}
			if job.State.RunningAtMs != nil {
				job.State.RunningAtMs = nil
				changed = true
			}
			if job.Enabled && job.State.NextRunAtMs == nil {
				job.State.NextRunAtMs = NextRunAtMs(job.Schedule, now)
				changed = true
			}
		}
		return changed, nil
	})
}

func (s *Scheduler) sleepDuration() time.Duration {
	limit := time.Duration(s.cfg.PollSeconds) * time.Second
	jobs, err := s.Jobs()
	if err != nil {
		return limit
	}
	now := s.nowMs()
	wait := limit
	for _, job := range jobs {
		if !job.Enabled || job.State.NextRunAtMs == nil || job.State.RunningAtMs != nil {
			continue
		}
		until := time.Duration(*job.State.NextRunAtMs-now) * time.Millisecond
		wait = min(wait, until)
	}
	return max(wait, time.Second)
}

// RunDue runs every enabled job whose next run time has passed and returns how
// many ran.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	now := s.nowMs()
	var due []Job
	err := s.withStore(func(store *StoreFile) (bool, error) {
		for i := range store.Jobs {
			job := &store.Jobs[i]
			if !job.Enabled || job.State.RunningAtMs != nil || job.State.NextRunAtMs == nil || *job.State.NextRunAtMs > now {
				continue
			}
			job.State.RunningAtMs = ptrInt64(now)
			due = append(due, *job)
		}
		return len(due) > 0, nil
	})
	if err != nil || len(due) == 0 {
		return 0, err
	}

	var group errgroup.Group
	group.SetLimit(s.cfg.MaxConcurrentRuns)
	for _, job := range due {
		group.Go(func() error {
			s.execute(ctx, job)
			return nil
		})
	}
	_ = group.Wait()
	return len(due), nil
}

// RunNow runs a job immediately regardless of its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) (RunResult, error) {
	var job Job
	err := s.withStore(func(store *StoreFile) (bool, error) {
		idx := slices.IndexFunc(store.Jobs, func(j Job) bool { return j.ID == id })
		if idx < 0 {
			return false, ErrJobNotFound
		}
		if store.Jobs[idx].State.RunningAtMs != nil {
			return false, ErrJobRunning
		}
		store.Jobs[idx].State.RunningAtMs = ptrInt64(s.nowMs())
		job = store.Jobs[idx]
		return true, nil
	})
	if err != nil {
		return RunResult{}, err
	}
	return s.execute(ctx, job), nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) RunResult {
	log := s.log.With().Str("job_id", job.ID).Str("topic", job.Topic).Logger()
	start := s.nowMs()
	log.Info().Msg("Running scheduled research")

	result, err := s.run(ctx, job)
	if err != nil {
		result.Status = "error"
		if result.Error == "" {
			result.Error = err.Error()
		}
		log.Warn().Err(err).Msg("Scheduled research failed")
	} else if result.Status == "" {
		result.Status = "success"
	}
	end := s.nowMs()
	duration := end - start

	var next *int64
	err = s.withStore(func(store *StoreFile) (bool, error) {
		idx := slices.IndexFunc(store.Jobs, func(j Job) bool { return j.ID == job.ID })
		if idx < 0 {
			// Removed while running.
			return false, nil
		}
		stored := &store.Jobs[idx]
		stored.State.RunningAtMs = nil
		stored.State.LastRunAtMs = ptrInt64(start)
		stored.State.LastStatus = result.Status
		stored.State.LastError = result.Error
		stored.State.LastRunID = result.RunID
		stored.State.LastDurationMs = ptrInt64(duration)
		stored.UpdatedAtMs = end
		if stored.Schedule.Kind == "at" {
			stored.Enabled = false
			if stored.DeleteAfterRun {
				store.Jobs = slices.Delete(store.Jobs, idx, idx+1)
				return true, nil
			}
		}
		if stored.Enabled {
			stored.State.NextRunAtMs = NextRunAtMs(stored.Schedule, end)
		} else {
			stored.State.NextRunAtMs = nil
		}
		next = stored.State.NextRunAtMs
		return true, nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to persist job state")
	}

	entry := RunLogEntry{
		TS:          end,
		JobID:       job.ID,
		Topic:       job.Topic,
		Status:      result.Status,
		Error:       result.Error,
		RunID:       result.RunID,
		OutputFile:  result.OutputFile,
		RunAtMs:     start,
		DurationMs:  duration,
		NextRunAtMs: derefInt64(next),
	}
	if err := AppendRunLog(ResolveRunLogPath(s.cfg.StorePath, job.ID), entry); err != nil {
		log.Warn().Err(err).Msg("Failed to append run log")
	}
	log.Info().Str("status", result.Status).Int64("duration_ms", duration).Msg("Scheduled research finished")
	return result
}
