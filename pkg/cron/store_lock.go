package cron

import (
	"strings"
	"sync"
)

// Schedulers and CLI edits in the same process share one lock per file.
var storeLocks sync.Map

func storeLockForPath(path string) *sync.Mutex {
	key := strings.TrimSpace(path)
	if key == "" {
		key = DefaultStorePath
	}
	if val, ok := storeLocks.Load(key); ok {
		return val.(*sync.Mutex)
	}
	actual, _ := storeLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
