// Package lock prevents concurrent bundling cycles on the same archive.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oneconcern/gxyarchiver/pkg/errors"
)

// FileName of the lock, in the bundled root
const FileName = ".gxyarchiver.lock"

// ErrLocked indicates that another process holds the lock
var ErrLocked = errors.New("archive is locked by another process")

// Lock is an exclusive advisory lock held on a file
type Lock struct {
	f *os.File
}

// Acquire takes the lock in dir without waiting. The lock is released when the process exits.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err = tryLock(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	_ = f.Truncate(0)
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	return &Lock{f: f}, nil
}

// Release the lock. The lock file is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
