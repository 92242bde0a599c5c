package cron

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

const DefaultStorePath = "research_outputs/schedule.json5"

// ResolveStorePath expands ~ and falls back to DefaultStorePath.
func ResolveStorePath(storePath string) string {
	trimmed := strings.TrimSpace(storePath)
	if trimmed == "" {
		return DefaultStorePath
	}
	if strings.HasPrefix(trimmed, "~") {
		if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
		}
	}
	return filepath.Clean(trimmed)
}

// LoadStore reads the schedule file. A missing file is an empty schedule;
// a malformed one is an error so hand edits are not silently dropped.
func LoadStore(storePath string) (StoreFile, error) {
	data, err := os.ReadFile(storePath)
	if errors.Is(err, os.ErrNotExist) {
		return StoreFile{Version: 1, Jobs: []Job{}}, nil
	} else if err != nil {
		return StoreFile{}, err
	}
	var parsed StoreFile
	if err := json5.Unmarshal(data, &parsed); err != nil {
		return StoreFile{}, fmt.Errorf("parse %s: %w", storePath, err)
	}
	if parsed.Version == 0 {
		parsed.Version = 1
	}
	if parsed.Jobs == nil {
		parsed.Jobs = []Job{}
	}
	return parsed, nil
}

// SaveStore writes the schedule atomically and keeps a .bak copy.
func SaveStore(storePath string, store StoreFile) error {
	if store.Version == 0 {
		store.Version = 1
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return err
	}
	payload, err := json5.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	tmp := storePath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, storePath); err != nil {
		return err
	}
	_ = os.WriteFile(storePath+".bak", payload, 0o644)
	return nil
}
