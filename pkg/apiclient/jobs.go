package apiclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/marmos91/dittoacl/pkg/job"
)

// DefaultPollInterval is the job polling interval used by WaitJob.
const DefaultPollInterval = 500 * time.Millisecond

// ListJobs returns all jobs, oldest first.
func (c *Client) ListJobs(ctx context.Context) ([]*job.Job, error) {
	var jobs []*job.Job
	if err := c.get(ctx, "/api/v1/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob returns a job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*job.Job, error) {
	var j job.Job
	if err := c.get(ctx, "/api/v1/jobs/"+url.PathEscape(id), &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// WaitJob polls a job until it finishes, forwarding each new progress
// checkpoint to progress. A failed job is returned together with its error.
func (c *Client) WaitJob(ctx context.Context, id string, interval time.Duration, progress job.Reporter) (*job.Job, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := 0
	for {
		j, err := c.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			for _, step := range j.History[min(seen, len(j.History)):] {
				progress.SetProgress(step.Percent, step.Description)
			}
		}
		seen = len(j.History)

		if j.IsDone() {
			return j, JobError(j)
		}

		select {
		case <-ctx.Done():
			return j, ctx.Err()
		case <-ticker.C:
		}
	}
}

// JobError returns the error a failed job ended with, or nil.
func JobError(j *job.Job) error {
	if j.State != job.StateFailed {
		return nil
	}
	code := fserrors.ParseErrorCode(j.ErrorCode)
	if code == 0 {
		return errors.New(j.Error)
	}
	// j.Error is the rendered error, code prefix included.
	return &fserrors.PermError{Code: code, Message: strings.TrimPrefix(j.Error, code.String()+": ")}
}
