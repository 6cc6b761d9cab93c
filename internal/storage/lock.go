package storage

import (
	"fmt"
	"os"
	"sync"
	"syscall"
)

// fileLock serializes writers of one storage file, both within this process
// and across processes (a second codecrew instance may share the data dir).
// The on-disk guard is a flock(2)-ed sibling file with a ".lock" suffix.
type fileLock struct {
	path string
	mu   sync.Mutex
}

func newFileLock(path string) *fileLock {
	return &fileLock{path: path}
}

// acquire takes the exclusive lock, blocking until it is free, and returns
// the function that releases it. Release removes the lock file.
func (l *fileLock) acquire() (release func(), err error) {
	l.mu.Lock()

	lockPath := l.path + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		l.mu.Unlock()
		return nil, fmt.Errorf("failed to flock %s: %w", lockPath, err)
	}

	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		os.Remove(lockPath)
		l.mu.Unlock()
	}, nil
}
