//go:build linux

package xattr

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// maxAttrSize bounds the attribute buffer: header plus MaxEntries entries.
const maxAttrSize = 8 + acl.MaxEntries*20

// Backend applies permissions through Linux syscalls.
type Backend struct {
	attr string
}

// New creates a backend using the named extended attribute. An empty
// name selects AttrName.
func New(attr string) *Backend {
	if attr == "" {
		attr = AttrName
	}
	return &Backend{attr: attr}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "xattr" }

// Stat implements backend.Backend.
func (b *Backend) Stat(_ context.Context, path string) (backend.Stat, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return backend.Stat{}, mapErrno(path, "stat", err)
	}
	return backend.Stat{
		UID:   int(st.Uid),
		GID:   int(st.Gid),
		Mode:  st.Mode & 0o7777,
		IsDir: st.Mode&unix.S_IFMT == unix.S_IFDIR,
	}, nil
}

// GetACL implements backend.Backend. A missing attribute yields the
// trivial ACL of the mode.
func (b *Backend) GetACL(ctx context.Context, path string) ([]acl.RawEntry, error) {
	buf := make([]byte, maxAttrSize)
	n, err := unix.Getxattr(path, b.attr, buf)
	if errors.Is(err, unix.ENODATA) {
		st, err := b.Stat(ctx, path)
		if err != nil {
			return nil, err
		}
		return acl.TrivialEntries(st.Mode, st.IsDir), nil
	}
	if err != nil {
		return nil, mapErrno(path, "getxattr", err)
	}

	entries, _, err := Unmarshal(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// SetACL implements backend.Backend.
func (b *Backend) SetACL(ctx context.Context, path string, entries []acl.RawEntry) error {
	st, err := b.Stat(ctx, path)
	if err != nil {
		return err
	}
	return b.write(path, entries, aclFlags(entries, st.IsDir))
}

// StripACL implements backend.Backend.
func (b *Backend) StripACL(ctx context.Context, path string) error {
	st, err := b.Stat(ctx, path)
	if err != nil {
		return err
	}
	flags := uint32(FlagIsTrivial)
	if st.IsDir {
		flags |= FlagIsDir
	}
	return b.write(path, acl.TrivialEntries(st.Mode, st.IsDir), flags)
}

// Chmod implements backend.Backend.
func (b *Backend) Chmod(_ context.Context, path string, mode uint32) error {
	if err := unix.Chmod(path, mode&0o7777); err != nil {
		return mapErrno(path, "chmod", err)
	}
	return nil
}

// Chown implements backend.Backend.
func (b *Backend) Chown(_ context.Context, path string, uid, gid int) error {
	if err := unix.Chown(path, uid, gid); err != nil {
		return mapErrno(path, "chown", err)
	}
	return nil
}

func (b *Backend) write(path string, entries []acl.RawEntry, flags uint32) error {
	data, err := Marshal(entries, flags)
	if err != nil {
		return fserrors.NewInvalidArgumentError(path, err)
	}
	if err := unix.Setxattr(path, b.attr, data, 0); err != nil {
		return mapErrno(path, "setxattr", err)
	}
	return nil
}

func aclFlags(entries []acl.RawEntry, isDir bool) uint32 {
	var flags uint32
	if acl.IsTrivial(entries) {
		flags |= FlagIsTrivial
	}
	if isDir {
		flags |= FlagIsDir
	}
	return flags
}

func mapErrno(path, op string, err error) error {
	switch {
	case errors.Is(err, unix.ENOENT):
		return fserrors.NewNotFoundError(path)
	case errors.Is(err, unix.ENOTSUP), errors.Is(err, unix.EOPNOTSUPP):
		return fserrors.NewNotSupportedError(path, "filesystem does not support NFSv4 ACLs")
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return fserrors.NewPermissionDeniedError(path, fmt.Sprintf("%s: %v", op, err))
	case errors.Is(err, unix.EINVAL):
		return fserrors.NewInvalidArgumentError(path, fmt.Errorf("%s: %w", op, err))
	default:
		return fserrors.NewExternalToolError(path, op+" failed", err.Error(), err)
	}
}
