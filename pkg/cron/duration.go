package cron

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var durationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(ms|s|m|h|d)?$`)

// parseDurationMs parses a duration string into milliseconds.
// Supports ms, s, m, h, d units. Defaults to defaultUnit when missing.
func parseDurationMs(raw string, defaultUnit string) (int64, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "" {
		return 0, fmt.Errorf("invalid duration (empty)")
	}
	matches := durationRe.FindStringSubmatch(trimmed)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration: %s", raw)
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid duration: %s", raw)
	}
	unit := matches[2]
	if unit == "" {
		unit = defaultUnit
	}
	switch unit {
	case "ms":
	case "s":
		value *= 1000
	case "m":
		value *= 60_000
	case "h":
		value *= 3_600_000
	case "d":
		value *= 86_400_000
	default:
		return 0, fmt.Errorf("invalid duration: %s", raw)
	}
	return int64(math.Round(value)), nil
}
