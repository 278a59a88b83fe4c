// Package job runs permission changes as tracked jobs. A job holds a named
// exclusive lock for its whole run and records its progress checkpoints so
// callers can follow long recursive changes.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = errors.New("job not found")

// State is the lifecycle state of a job.
type State string

const (
	StateRunning State = "RUNNING"
	StateSuccess State = "SUCCESS"
	StateFailed  State = "FAILED"
)

// Step is one progress checkpoint.
type Step struct {
	Percent     int       `json:"percent" yaml:"percent"`
	Description string    `json:"description" yaml:"description"`
	Time        time.Time `json:"time" yaml:"time"`
}

// Job is the record of one operation.
type Job struct {
	ID         string     `json:"id" yaml:"id"`
	Method     string     `json:"method" yaml:"method"`
	Path       string     `json:"path,omitempty" yaml:"path,omitempty"`
	Lock       string     `json:"lock,omitempty" yaml:"lock,omitempty"`
	State      State      `json:"state" yaml:"state"`
	Progress   Step       `json:"progress" yaml:"progress"`
	History    []Step     `json:"history,omitempty" yaml:"history,omitempty"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode  string     `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// New creates a RUNNING job with a fresh id.
func New(method, path, lock string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Method:    method,
		Path:      path,
		Lock:      lock,
		State:     StateRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Clone returns a deep copy.
func (j *Job) Clone() *Job {
	cp := *j
	cp.History = append([]Step(nil), j.History...)
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool {
	return j.State == StateSuccess || j.State == StateFailed
}

// Store persists job records.
type Store interface {
	Put(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context) ([]*Job, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// tracker updates a job as checkpoints arrive and saves each change.
type tracker struct {
	mu    sync.Mutex
	job   *Job
	store Store
	ctx   context.Context
	onErr func(error)
}

// SetProgress records a checkpoint. Checkpoints are never retracted.
func (t *tracker) SetProgress(percent int, description string) {
	t.mu.Lock()
	step := Step{Percent: percent, Description: description, Time: time.Now().UTC()}
	t.job.Progress = step
	t.job.History = append(t.job.History, step)
	snapshot := t.job.Clone()
	t.mu.Unlock()

	if err := t.store.Put(t.ctx, snapshot); err != nil && t.onErr != nil {
		t.onErr(err)
	}
}

func (t *tracker) finish(state State, err error, code string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now().UTC()
	t.job.State = state
	t.job.FinishedAt = &now
	if err != nil {
		t.job.Error = err.Error()
		t.job.ErrorCode = code
	}
	return t.job.Clone()
}
