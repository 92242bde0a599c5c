package fetch

import (
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Artifact is a downloaded document staged on disk. Every fetch gets its own
// file; Remove is safe to call more than once.
type Artifact struct {
	Path string
	Size int64

	once sync.Once
	err  error
}

// Open opens the staged file for reading.
func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Remove deletes the staged file.
func (a *Artifact) Remove() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.err = err
		}
	})
	return a.err
}
