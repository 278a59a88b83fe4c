// Package backend defines how permission operations reach the filesystem.
//
// A Backend reads and writes NFSv4 ACLs in raw dialect form and applies
// POSIX ownership and mode. Implementations:
//   - xattr: Linux ZFS, via the system.nfs4_acl_xdr extended attribute
//   - memory: an in-memory object table for tests and dry runs
package backend

import (
	"context"

	"github.com/marmos91/dittoacl/pkg/acl"
)

// Unchanged is passed to Chown for an owner or group that must be left
// as is.
const Unchanged = -1

// Stat is the ownership and mode of a filesystem object.
type Stat struct {
	UID   int
	GID   int
	Mode  uint32
	IsDir bool
}

// Backend reads and applies permissions on filesystem objects.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Stat returns ownership and permission bits of path.
	Stat(ctx context.Context, path string) (Stat, error)

	// GetACL returns the raw ACL of path. Objects without an explicit ACL
	// report the trivial ACL equivalent to their mode.
	GetACL(ctx context.Context, path string) ([]acl.RawEntry, error)

	// SetACL replaces the ACL of path.
	SetACL(ctx context.Context, path string, entries []acl.RawEntry) error

	// StripACL replaces the ACL of path with the trivial ACL of its mode.
	StripACL(ctx context.Context, path string) error

	// Chmod sets the permission bits of path.
	Chmod(ctx context.Context, path string, mode uint32) error

	// Chown sets owner and group of path. Unchanged leaves a field as is.
	Chown(ctx context.Context, path string, uid, gid int) error
}
