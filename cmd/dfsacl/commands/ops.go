package commands

import (
	"context"
	"errors"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/apiclient"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
	"github.com/marmos91/dittoacl/pkg/job"
)

// ops is what the commands need from either the local components or a
// remote server.
type ops interface {
	GetACL(ctx context.Context, path string, simplified bool) (*acl.ACL, error)
	ACLIsTrivial(ctx context.Context, path string) (bool, error)
	DefaultACL(ctx context.Context, aclType, shareType string) ([]acl.ACE, error)
	SetACL(ctx context.Context, req filesystem.SetACLRequest, progress job.Reporter) (*job.Job, error)
	SetPerm(ctx context.Context, req filesystem.SetPermRequest, progress job.Reporter) (*job.Job, error)
	Chown(ctx context.Context, req filesystem.ChownRequest, progress job.Reporter) (*job.Job, error)
	CanAccess(ctx context.Context, username, path string, flags access.Flags) (bool, error)
	ListJobs(ctx context.Context) ([]*job.Job, error)
	GetJob(ctx context.Context, id string) (*job.Job, error)
	Close() error
}

var errGlobRemote = errors.New("--glob is not supported with --server")

// openOps returns a client for --server when given, or the locally wired
// components.
func openOps() (ops, error) {
	if serverURL != "" {
		return &remoteOps{client: apiclient.New(serverURL).WithToken(apiToken)}, nil
	}
	a, err := loadApp()
	if err != nil {
		return nil, err
	}
	return &localOps{app: a}, nil
}

// isRemote reports whether o talks to a server.
func isRemote(o ops) bool {
	_, ok := o.(*remoteOps)
	return ok
}

type localOps struct {
	app *app
}

func (l *localOps) GetACL(ctx context.Context, path string, simplified bool) (*acl.ACL, error) {
	return l.app.service.GetACL(ctx, path, simplified)
}

func (l *localOps) ACLIsTrivial(ctx context.Context, path string) (bool, error) {
	return l.app.service.ACLIsTrivial(ctx, path)
}

func (l *localOps) DefaultACL(ctx context.Context, aclType, shareType string) ([]acl.ACE, error) {
	return l.app.service.DefaultACL(ctx, aclType, shareType)
}

func (l *localOps) SetACL(ctx context.Context, req filesystem.SetACLRequest, progress job.Reporter) (*job.Job, error) {
	return l.run(ctx, filesystem.MethodSetACL, req.Path, progress, func(ctx context.Context, p job.Reporter) error {
		return l.app.service.SetACL(ctx, req, p)
	})
}

func (l *localOps) SetPerm(ctx context.Context, req filesystem.SetPermRequest, progress job.Reporter) (*job.Job, error) {
	return l.run(ctx, filesystem.MethodSetPerm, req.Path, progress, func(ctx context.Context, p job.Reporter) error {
		return l.app.service.SetPerm(ctx, req, p)
	})
}

func (l *localOps) Chown(ctx context.Context, req filesystem.ChownRequest, progress job.Reporter) (*job.Job, error) {
	return l.run(ctx, filesystem.MethodChown, req.Path, progress, func(ctx context.Context, p job.Reporter) error {
		return l.app.service.Chown(ctx, req, p)
	})
}

// run runs fn synchronously under the permission lock.
func (l *localOps) run(ctx context.Context, method, path string, progress job.Reporter, fn job.Func) (*job.Job, error) {
	spec := job.Spec{Method: method, Path: path, Lock: job.PermChangeLock}
	return l.app.runner.Run(ctx, spec, func(ctx context.Context, p job.Reporter) error {
		return fn(ctx, tee{p, progress})
	})
}

func (l *localOps) CanAccess(ctx context.Context, username, path string, flags access.Flags) (bool, error) {
	return l.app.checker.CanAccess(ctx, username, path, flags)
}

func (l *localOps) ListJobs(ctx context.Context) ([]*job.Job, error) {
	jobs, err := l.app.store.List(ctx)
	if err != nil {
		return nil, err
	}
	job.SortByStart(jobs)
	return jobs, nil
}

func (l *localOps) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return l.app.store.Get(ctx, id)
}

func (l *localOps) Close() error {
	return l.app.Close()
}

// remoteOps submits mutations in the background and follows the job, so
// progress is shown while a long recursive change runs on the server.
type remoteOps struct {
	client *apiclient.Client
}

func (r *remoteOps) GetACL(ctx context.Context, path string, simplified bool) (*acl.ACL, error) {
	return r.client.GetACL(ctx, path, simplified)
}

func (r *remoteOps) ACLIsTrivial(ctx context.Context, path string) (bool, error) {
	return r.client.ACLIsTrivial(ctx, path)
}

func (r *remoteOps) DefaultACL(ctx context.Context, aclType, shareType string) ([]acl.ACE, error) {
	return r.client.DefaultACL(ctx, aclType, shareType)
}

func (r *remoteOps) SetACL(ctx context.Context, req filesystem.SetACLRequest, progress job.Reporter) (*job.Job, error) {
	return r.follow(ctx, progress)(r.client.SetACL(ctx, req, false))
}

func (r *remoteOps) SetPerm(ctx context.Context, req filesystem.SetPermRequest, progress job.Reporter) (*job.Job, error) {
	return r.follow(ctx, progress)(r.client.SetPerm(ctx, req, false))
}

func (r *remoteOps) Chown(ctx context.Context, req filesystem.ChownRequest, progress job.Reporter) (*job.Job, error) {
	return r.follow(ctx, progress)(r.client.Chown(ctx, req, false))
}

func (r *remoteOps) follow(ctx context.Context, progress job.Reporter) func(*job.Job, error) (*job.Job, error) {
	return func(j *job.Job, err error) (*job.Job, error) {
		if err != nil {
			return nil, err
		}
		return r.client.WaitJob(ctx, j.ID, apiclient.DefaultPollInterval, progress)
	}
}

func (r *remoteOps) CanAccess(ctx context.Context, username, path string, flags access.Flags) (bool, error) {
	return r.client.CanAccess(ctx, username, path, flags)
}

func (r *remoteOps) ListJobs(ctx context.Context) ([]*job.Job, error) {
	return r.client.ListJobs(ctx)
}

func (r *remoteOps) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return r.client.GetJob(ctx, id)
}

func (r *remoteOps) Close() error { return nil }
