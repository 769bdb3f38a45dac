package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// writerLock serializes index writers across processes using gofrs/flock.
// The MCP server only reads; ingestion and vectorization take this lock.
// Works on all platforms (Unix, Linux, macOS, Windows).
type writerLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// newWriterLock creates a lock beside the database file.
func newWriterLock(dbPath string) *writerLock {
	lockPath := dbPath + ".lock"
	return &writerLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// acquire takes the exclusive lock, polling until it is free or ctx ends.
func (l *writerLock) acquire(ctx context.Context) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire writer lock at %s: %w", l.path, err)
	}
	if !acquired {
		return fmt.Errorf("writer lock at %s is held by another process", l.path)
	}
	l.locked = true
	return nil
}

// release frees the lock. Safe to call when not held.
func (l *writerLock) release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release writer lock: %w", err)
	}
	return nil
}
