package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/specsafe/specsafe/internal/config"
)

// LockInfo is the advisory payload written into the lock file so humans and
// tools can see who holds the lock. The lock's authority comes from
// exclusive file creation, not from this content.
type LockInfo struct {
	PID       int   `json:"pid"`
	Timestamp int64 `json:"timestamp"` // acquisition time in Unix milliseconds
}

// Locker guards the store file against concurrent writers
type Locker interface {
	// Acquire blocks until the lock is held, the configured timeout
	// elapses, or ctx is done
	Acquire(ctx context.Context) error

	// Release drops the lock. Safe to call when the lock is not held.
	Release() error
}

// FileLock implements Locker with a lock file created O_CREATE|O_EXCL next
// to the store. Creation is atomic on POSIX filesystems, so exactly one
// process wins. A lock file older than the configured staleness threshold
// (by mtime) is treated as abandoned by a crashed process and reclaimed.
type FileLock struct {
	path string
	cfg  config.Config
	held bool
}

// NewFileLock returns an unheld lock at path
func NewFileLock(path string, cfg config.Config) *FileLock {
	return &FileLock{path: path, cfg: cfg}
}

// Acquire takes the lock, polling at the configured interval while another
// process holds it. Returns a *LockTimeoutError when the configured timeout
// elapses first, or ctx.Err() when the caller's context is done first.
func (l *FileLock) Acquire(ctx context.Context) error {
	if l.held {
		return fmt.Errorf("lock already held by this process: %s", l.path)
	}

	deadline := time.Now().Add(l.cfg.LockTimeout)
	limiter := rate.NewLimiter(rate.Every(l.cfg.LockPollInterval), 1)

	for {
		created, err := l.tryAcquire()
		if err != nil {
			return err
		}
		if created {
			l.held = true
			return nil
		}

		reclaimed, err := l.reclaimStale()
		if err != nil {
			return err
		}
		if reclaimed {
			// Retry immediately; exclusive creation still arbitrates
			// if another process reclaimed at the same moment
			continue
		}

		if time.Now().After(deadline) {
			return &LockTimeoutError{Path: l.path, Timeout: l.cfg.LockTimeout}
		}
		if err := limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
	}
}

// tryAcquire attempts a single exclusive creation of the lock file.
// Returns false with no error when another process holds the lock.
func (l *FileLock) tryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, &IOError{Op: "creating lock", Path: l.path, Err: err}
	}

	info := LockInfo{
		PID:       os.Getpid(),
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(info)
	if err == nil {
		_, err = f.Write(data)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A lock file we could not fully write is still ours to remove
		_ = os.Remove(l.path)
		return false, &IOError{Op: "writing lock", Path: l.path, Err: err}
	}

	return true, nil
}

// reclaimStale removes the lock file if its mtime is older than the
// staleness threshold. Returns true if a stale lock was removed.
func (l *FileLock) reclaimStale() (bool, error) {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		// Holder released between our attempt and this check
		return true, nil
	}
	if err != nil {
		return false, &IOError{Op: "checking lock", Path: l.path, Err: err}
	}

	age := time.Since(info.ModTime())
	if age < l.cfg.LockStaleAfter {
		return false, nil
	}

	holder, _, readErr := l.Inspect()

	// Re-stat before removing: another process may have reclaimed the
	// stale file and created a fresh lock since the age check above.
	recheck, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, &IOError{Op: "checking lock", Path: l.path, Err: err}
	}
	if !recheck.ModTime().Equal(info.ModTime()) {
		return false, nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return false, &IOError{Op: "removing stale lock", Path: l.path, Err: err}
	}

	if readErr == nil {
		log.Printf("[LOCK] reclaimed stale lock %s (age %v, held by pid %d)", l.path, age.Round(time.Second), holder.PID)
	} else {
		log.Printf("[LOCK] reclaimed stale lock %s (age %v, unreadable payload)", l.path, age.Round(time.Second))
	}
	return true, nil
}

// Release drops the lock if this process holds it. Calling Release on an
// unheld lock is a no-op, so it is safe to defer unconditionally.
func (l *FileLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "releasing lock", Path: l.path, Err: err}
	}
	return nil
}

// ForceRelease removes the lock file regardless of holder. For the unlock
// command, after a human has decided the holder is gone.
func (l *FileLock) ForceRelease() error {
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "removing lock", Path: l.path, Err: err}
	}
	return nil
}

// Inspect reads the advisory payload and mtime of the current lock file.
// Returns an error satisfying os.IsNotExist when no lock file is present.
func (l *FileLock) Inspect() (LockInfo, time.Time, error) {
	stat, err := os.Stat(l.path)
	if err != nil {
		return LockInfo{}, time.Time{}, err
	}

	var info LockInfo
	data, err := os.ReadFile(l.path)
	if err != nil {
		return LockInfo{}, stat.ModTime(), err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}, stat.ModTime(), fmt.Errorf("unreadable lock payload: %w", err)
	}

	return info, stat.ModTime(), nil
}
