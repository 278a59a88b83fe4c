package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// PermChangeLock serializes every permission-mutating operation.
const PermChangeLock = "perm_change"

// flockRetry is the polling interval while waiting for a file lock.
const flockRetry = 100 * time.Millisecond

// Locks hands out named exclusive locks. Within a process a lock is a
// one-slot channel; when a directory is configured each lock is also an
// flock on <dir>/<name>.lock so separate processes exclude each other.
type Locks struct {
	dir string

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocks creates a lock set. dir may be empty for in-process locking only.
func NewLocks(dir string) *Locks {
	return &Locks{dir: dir, slots: make(map[string]chan struct{})}
}

func (l *Locks) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Acquire blocks until name is free or ctx is done. The returned function
// releases the lock.
func (l *Locks) Acquire(ctx context.Context, name string) (func(), error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	fl, err := l.lockFile(ctx, name, true)
	if err != nil {
		<-ch
		return nil, err
	}
	return l.releaser(ch, fl), nil
}

// TryAcquire takes name without waiting. A held lock fails with Busy.
func (l *Locks) TryAcquire(ctx context.Context, name string) (func(), error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
	default:
		return nil, fserrors.NewBusyError(name)
	}

	fl, err := l.lockFile(ctx, name, false)
	if err != nil {
		<-ch
		return nil, err
	}
	return l.releaser(ch, fl), nil
}

func (l *Locks) lockFile(ctx context.Context, name string, wait bool) (*flock.Flock, error) {
	if l.dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory %s: %w", l.dir, err)
	}

	fl := flock.New(filepath.Join(l.dir, name+".lock"))
	var (
		locked bool
		err    error
	)
	if wait {
		locked, err = fl.TryLockContext(ctx, flockRetry)
	} else {
		locked, err = fl.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fserrors.NewBusyError(name)
	}
	return fl, nil
}

func (l *Locks) releaser(ch chan struct{}, fl *flock.Flock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if fl != nil {
				_ = fl.Unlock()
			}
			<-ch
		})
	}
}
