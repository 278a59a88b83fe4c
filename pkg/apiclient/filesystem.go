package apiclient

import (
	"context"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/api/handlers"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/access"
	"github.com/marmos91/dittoacl/pkg/job"
)

const filesystemPath = "/api/v1/filesystem"

// GetACL returns the ACL of path.
func (c *Client) GetACL(ctx context.Context, path string, simplified bool) (*acl.ACL, error) {
	var result acl.ACL
	req := handlers.GetACLRequest{Path: path, Simplified: simplified}
	if err := c.post(ctx, filesystemPath+"/getacl", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetACL submits a setacl job. With wait the call returns once the job
// finished and fails with the operation's error.
func (c *Client) SetACL(ctx context.Context, req filesystem.SetACLRequest, wait bool) (*job.Job, error) {
	return c.mutate(ctx, "/setacl", req, wait)
}

// SetPerm submits a setperm job.
func (c *Client) SetPerm(ctx context.Context, req filesystem.SetPermRequest, wait bool) (*job.Job, error) {
	return c.mutate(ctx, "/setperm", req, wait)
}

// Chown submits a chown job.
func (c *Client) Chown(ctx context.Context, req filesystem.ChownRequest, wait bool) (*job.Job, error) {
	return c.mutate(ctx, "/chown", req, wait)
}

func (c *Client) mutate(ctx context.Context, op string, body any, wait bool) (*job.Job, error) {
	path := filesystemPath + op
	if wait {
		path += "?wait=true"
	}
	var j job.Job
	if err := c.post(ctx, path, body, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// ACLIsTrivial reports whether the ACL of path is expressible as a mode.
func (c *Client) ACLIsTrivial(ctx context.Context, path string) (bool, error) {
	var resp handlers.TrivialResponse
	if err := c.post(ctx, filesystemPath+"/acl_is_trivial", handlers.PathRequest{Path: path}, &resp); err != nil {
		return false, err
	}
	return resp.Trivial, nil
}

// DefaultACLChoices returns the selectable template names.
func (c *Client) DefaultACLChoices(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, filesystemPath+"/default_acl_choices", &names); err != nil {
		return nil, err
	}
	return names, nil
}

// DefaultACL returns the entries a template resolves to on the server.
func (c *Client) DefaultACL(ctx context.Context, aclType, shareType string) ([]acl.ACE, error) {
	var entries []acl.ACE
	req := handlers.DefaultACLRequest{ACLType: aclType, ShareType: shareType}
	if err := c.post(ctx, filesystemPath+"/get_default_acl", req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CanAccess evaluates the access of username to path on the server.
func (c *Client) CanAccess(ctx context.Context, username, path string, flags access.Flags) (bool, error) {
	var resp handlers.CanAccessResponse
	req := handlers.CanAccessRequest{Username: username, Path: path, Permissions: flags}
	if err := c.post(ctx, filesystemPath+"/can_access_as_user", req, &resp); err != nil {
		return false, err
	}
	return resp.Allowed, nil
}
