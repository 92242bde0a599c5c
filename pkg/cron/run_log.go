package cron

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	runLogMaxBytes  = 2_000_000
	runLogKeepLines = 2000
)

// RunLogEntry is one line of a job's jsonl run log.
type RunLogEntry struct {
	TS          int64  `json:"ts"`
	JobID       string `json:"jobId"`
	Topic       string `json:"topic"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`
	RunID       string `json:"runId,omitempty"`
	OutputFile  string `json:"outputFile,omitempty"`
	RunAtMs     int64  `json:"runAtMs,omitempty"`
	DurationMs  int64  `json:"durationMs,omitempty"`
	NextRunAtMs int64  `json:"nextRunAtMs,omitempty"`
}

// ResolveRunLogPath returns runs/<jobId>.jsonl next to the store.
func ResolveRunLogPath(storePath, jobID string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(storePath)), "runs", jobID+".jsonl")
}

// AppendRunLog appends an entry and prunes the file when it grows too large.
func AppendRunLog(path string, entry RunLogEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(payload, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return pruneRunLog(path)
}

func pruneRunLog(path string) error {
	stat, err := os.Stat(path)
	if err != nil || stat.Size() <= runLogMaxBytes {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := splitLines(data)
	if len(lines) <= runLogKeepLines {
		return nil
	}
	payload := append(bytes.Join(lines[len(lines)-runLogKeepLines:], []byte{'\n'}), '\n')
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return nil
	}
	_ = os.Rename(tmp, path)
	return nil
}

// ReadRunLog returns up to limit of the most recent entries, oldest first.
func ReadRunLog(path string, limit int) ([]RunLogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return []RunLogEntry{}, nil
	}
	lines := splitLines(data)
	entries := make([]RunLogEntry, 0)
	for i := len(lines) - 1; i >= 0 && len(entries) < limit; i-- {
		var entry RunLogEntry
		if err := json.Unmarshal(lines[i], &entry); err != nil || entry.JobID == "" {
			continue
		}
		entries = append(entries, entry)
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if line = bytes.TrimSpace(line); len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
