// Package lock guards a single-instance invariant for the sandboxctl CLI:
// only one process should own a given workspace's audit/telemetry files
// at a time.
package lock

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// Instance wraps a file lock acquired for the lifetime of one process.
type Instance struct {
	fl *flock.Flock
}

// Acquire takes an exclusive, non-blocking lock on path. Callers should
// defer Release immediately on success.
func Acquire(path string) (*Instance, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock: %s: already held by another instance", path)
	}
	return &Instance{fl: fl}, nil
}

// Release unlocks and removes the lock file. Safe to call more than once.
func (i *Instance) Release() {
	if i.fl == nil {
		return
	}
	path := i.fl.Path()
	_ = i.fl.Unlock()
	_ = os.Remove(path)
	i.fl = nil
}
