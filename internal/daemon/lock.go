package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"printflow/internal/services"
)

// Lock is the single-writer lock shared by the daemon and mutating CLI
// commands.
type Lock struct {
	path string
	lock *flock.Flock
}

// NewLock prepares a lock at path without acquiring it.
func NewLock(path string) *Lock {
	return &Lock{path: path, lock: flock.New(path)}
}

// AcquireLock takes the lock at path or fails with an unavailable error when
// another process holds it.
func AcquireLock(path string) (*Lock, error) {
	l := NewLock(path)
	if err := l.TryAcquire(); err != nil {
		return nil, err
	}
	return l, nil
}

// TryAcquire takes the lock without blocking.
func (l *Lock) TryAcquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return services.Wrap(
			services.ErrUnavailable,
			"lock",
			"another printflow process holds "+l.path,
			nil,
		)
	}
	return nil
}

// Release drops the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() error {
	if l == nil || !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}

// Held reports whether this process holds the lock.
func (l *Lock) Held() bool {
	return l != nil && l.lock.Locked()
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// LockHeld probes whether some other process currently holds the lock at path.
func LockHeld(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}
