// Package filelock wraps POSIX advisory locks so concurrent writers to the
// same daily markdown file serialize their appends.
package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock takes an exclusive advisory lock on f, blocking until it is granted.
func Lock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// Unlock releases the advisory lock on f.
func Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// WithLock runs fn while holding an exclusive lock on f. The lock is
// released even when fn returns an error.
func WithLock(f *os.File, fn func() error) error {
	if err := Lock(f); err != nil {
		return err
	}
	defer Unlock(f)
	return fn()
}
