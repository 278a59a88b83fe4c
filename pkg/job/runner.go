package job

import (
	"context"
	"time"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// Reporter receives progress checkpoints.
type Reporter interface {
	SetProgress(percent int, description string)
}

// Func is the body of a job.
type Func func(ctx context.Context, progress Reporter) error

// Spec describes a job to run.
type Spec struct {
	Method string
	Path   string

	// Lock is the exclusive lock held for the whole run. Empty runs unlocked.
	Lock string
}

// Runner executes jobs under their locks and records them in a store.
type Runner struct {
	store     Store
	locks     *Locks
	retention time.Duration
}

// NewRunner creates a runner. Finished jobs older than retention are
// pruned when new jobs start; zero keeps them forever.
func NewRunner(store Store, locks *Locks, retention time.Duration) *Runner {
	if locks == nil {
		locks = NewLocks("")
	}
	return &Runner{store: store, locks: locks, retention: retention}
}

// Store returns the job store.
func (r *Runner) Store() Store {
	return r.store
}

// Run executes fn synchronously and returns the finished job record
// together with fn's error.
func (r *Runner) Run(ctx context.Context, spec Spec, fn Func) (*Job, error) {
	release, err := r.acquire(ctx, spec.Lock)
	if err != nil {
		return nil, err
	}
	defer release()

	j := New(spec.Method, spec.Path, spec.Lock)
	return r.execute(ctx, j, fn)
}

// Submit starts fn in the background once the lock is held and returns
// the RUNNING record immediately. A held lock fails with Busy.
func (r *Runner) Submit(ctx context.Context, spec Spec, fn Func) (*Job, error) {
	release, err := r.tryAcquire(ctx, spec.Lock)
	if err != nil {
		return nil, err
	}

	j := New(spec.Method, spec.Path, spec.Lock)
	if err := r.store.Put(ctx, j); err != nil {
		release()
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer release()
		_, _ = r.execute(bg, j.Clone(), fn)
	}()
	return j.Clone(), nil
}

func (r *Runner) execute(ctx context.Context, j *Job, fn Func) (*Job, error) {
	r.prune(ctx)

	ctx, lc := logger.EnsureContext(ctx)
	ctx = logger.WithContext(ctx, lc.WithJob(j.ID))
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanJobRun)
	span.SetAttributes(telemetry.JobID(j.ID), telemetry.Method(j.Method), telemetry.Lock(j.Lock))

	if err := r.store.Put(ctx, j); err != nil {
		telemetry.End(span, err)
		return nil, err
	}
	logger.InfoCtx(ctx, "job started", logger.JobID(j.ID), logger.Method(j.Method), logger.Path(j.Path))

	t := &tracker{job: j, store: r.store, ctx: ctx, onErr: func(err error) {
		logger.WarnCtx(ctx, "failed to save job progress", logger.JobID(j.ID), logger.Err(err))
	}}

	runErr := fn(ctx, t)

	var final *Job
	if runErr != nil {
		var code string
		if c := fserrors.CodeOf(runErr); c != 0 {
			code = c.String()
		}
		final = t.finish(StateFailed, runErr, code)
		logger.WarnCtx(ctx, "job failed", logger.JobID(j.ID), logger.Method(j.Method), logger.Err(runErr))
	} else {
		final = t.finish(StateSuccess, nil, "")
		logger.InfoCtx(ctx, "job finished", logger.JobID(j.ID), logger.Method(j.Method))
	}
	telemetry.End(span, runErr)

	if err := r.store.Put(ctx, final); err != nil {
		logger.WarnCtx(ctx, "failed to save job", logger.JobID(j.ID), logger.Err(err))
	}
	return final, runErr
}

func (r *Runner) acquire(ctx context.Context, name string) (func(), error) {
	if name == "" {
		return func() {}, nil
	}
	logger.DebugCtx(ctx, "waiting for lock", logger.Lock(name))
	return r.locks.Acquire(ctx, name)
}

func (r *Runner) tryAcquire(ctx context.Context, name string) (func(), error) {
	if name == "" {
		return func() {}, nil
	}
	return r.locks.TryAcquire(ctx, name)
}

// prune drops finished jobs past the retention window.
func (r *Runner) prune(ctx context.Context) {
	if r.retention <= 0 {
		return
	}
	jobs, err := r.store.List(ctx)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-r.retention)
	for _, j := range jobs {
		if j.IsDone() && j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			_ = r.store.Delete(ctx, j.ID)
		}
	}
}
