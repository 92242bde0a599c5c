package cron

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

var cronParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor)

// NextRunAtMs returns the next run time in unix ms, or nil when the schedule
// will not fire again.
func NextRunAtMs(schedule Schedule, nowMs int64) *int64 {
	switch strings.TrimSpace(schedule.Kind) {
	case "at":
		if schedule.AtMs > nowMs {
			return ptrInt64(schedule.AtMs)
		}
		return nil
	case "every":
		everyMs := schedule.EveryMs
		if everyMs < 1 {
			everyMs = 1
		}
		anchor := derefInt64(schedule.AnchorMs)
		if anchor <= 0 {
			anchor = nowMs
		}
		if nowMs < anchor {
			return ptrInt64(anchor)
		}
		steps := (nowMs - anchor + everyMs - 1) / everyMs
		if steps < 1 {
			steps = 1
		}
		return ptrInt64(anchor + steps*everyMs)
	case "cron":
		sched, err := cronParser.Parse(strings.TrimSpace(schedule.Expr))
		if err != nil {
			return nil
		}
		next := sched.Next(time.UnixMilli(nowMs).In(scheduleLocation(schedule.TZ)))
		if next.IsZero() {
			return nil
		}
		return ptrInt64(next.UTC().UnixMilli())
	default:
		return nil
	}
}

func scheduleLocation(tz string) *time.Location {
	if tz = strings.TrimSpace(tz); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// NormalizeSchedule infers Kind when it is missing and resolves Every.
func NormalizeSchedule(schedule *Schedule) error {
	schedule.Kind = strings.ToLower(strings.TrimSpace(schedule.Kind))
	if schedule.Kind == "" {
		switch {
		case strings.TrimSpace(schedule.Expr) != "":
			schedule.Kind = "cron"
		case strings.TrimSpace(schedule.Every) != "" || schedule.EveryMs > 0:
			schedule.Kind = "every"
		case schedule.AtMs > 0:
			schedule.Kind = "at"
		}
	}
	if schedule.Kind == "every" && strings.TrimSpace(schedule.Every) != "" {
		ms, err := parseDurationMs(schedule.Every, "m")
		if err != nil {
			return err
		}
		schedule.EveryMs = ms
	}
	return ValidateSchedule(*schedule)
}

// ValidateSchedule reports schedules that can never fire.
func ValidateSchedule(schedule Schedule) error {
	switch schedule.Kind {
	case "cron":
		if _, err := cronParser.Parse(strings.TrimSpace(schedule.Expr)); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", schedule.Expr, err)
		}
		if tz := strings.TrimSpace(schedule.TZ); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tz, err)
			}
		}
	case "every":
		if schedule.EveryMs < 60_000 {
			return errors.New("every schedules must be at least one minute apart")
		}
	case "at":
		if schedule.AtMs <= 0 {
			return errors.New("at schedules need atMs")
		}
	case "":
		return errors.New("schedule needs expr, every or atMs")
	default:
		return fmt.Errorf("unknown schedule kind %q", schedule.Kind)
	}
	return nil
}
