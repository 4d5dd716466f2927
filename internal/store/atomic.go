package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// lockRetryBackoffs is the bounded retry schedule for exclusive-lock
// acquisition contention (spec.md §4.A, §5): ~100ms, 300ms, 1000ms.
var lockRetryBackoffs = []time.Duration{
	100 * time.Millisecond,
	300 * time.Millisecond,
	1000 * time.Millisecond,
}

// AtomicWrite writes data to path by writing a sibling temp file under
// an exclusive lock, fsyncing, and renaming over the target. On any
// error the temp file is removed before the error is returned. Modeled
// on FileStorage.atomicWrite in the teacher's internal/storage/file.go,
// generalized with the shared/exclusive advisory locking spec.md §4.A
// requires.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := lockExclusive(f); err != nil {
		_ = f.Close()
		return err
	}

	if _, err := f.Write(data); err != nil {
		_ = unlockFile(f)
		_ = f.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = unlockFile(f)
		_ = f.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := unlockFile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("unlock temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}

// ReadLocked reads path under a shared advisory lock. A missing file
// returns os.ErrNotExist unchanged so callers can special-case it.
func ReadLocked(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if err := lockShared(f); err != nil {
		return nil, err
	}
	defer func() { _ = unlockFile(f) }()

	return readAll(f)
}

func readAll(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	n, err := f.Read(buf)
	if err != nil && n == 0 && info.Size() > 0 {
		return nil, err
	}
	return buf[:n], nil
}

// lockExclusive takes an exclusive advisory lock on f, retrying with
// the bounded back-off schedule on contention (spec.md §4.A, §5).
func lockExclusive(f *os.File) error {
	return lockWithRetry(f, unix.LOCK_EX)
}

// lockShared takes a shared advisory lock on f for reads.
func lockShared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

func lockWithRetry(f *os.File, how int) error {
	var lastErr error
	for attempt := 0; attempt <= len(lockRetryBackoffs); attempt++ {
		err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < len(lockRetryBackoffs) {
			time.Sleep(lockRetryBackoffs[attempt])
		}
	}
	return fmt.Errorf("%w: %v", ErrBlockedIO, lastErr)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
