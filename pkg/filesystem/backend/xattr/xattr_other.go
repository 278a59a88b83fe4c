//go:build !linux

package xattr

import (
	"context"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

const unsupported = "NFSv4 ACLs are not implemented on this platform"

// Backend reports NotSupported for every operation on this platform.
type Backend struct{}

// New creates a backend that rejects all operations.
func New(string) *Backend { return &Backend{} }

// Name implements backend.Backend.
func (b *Backend) Name() string { return "xattr" }

// Stat implements backend.Backend.
func (b *Backend) Stat(_ context.Context, path string) (backend.Stat, error) {
	return backend.Stat{}, fserrors.NewNotSupportedError(path, unsupported)
}

// GetACL implements backend.Backend.
func (b *Backend) GetACL(_ context.Context, path string) ([]acl.RawEntry, error) {
	return nil, fserrors.NewNotSupportedError(path, unsupported)
}

// SetACL implements backend.Backend.
func (b *Backend) SetACL(_ context.Context, path string, _ []acl.RawEntry) error {
	return fserrors.NewNotSupportedError(path, unsupported)
}

// StripACL implements backend.Backend.
func (b *Backend) StripACL(_ context.Context, path string) error {
	return fserrors.NewNotSupportedError(path, unsupported)
}

// Chmod implements backend.Backend.
func (b *Backend) Chmod(_ context.Context, path string, _ uint32) error {
	return fserrors.NewNotSupportedError(path, unsupported)
}

// Chown implements backend.Backend.
func (b *Backend) Chown(_ context.Context, path string, _, _ int) error {
	return fserrors.NewNotSupportedError(path, unsupported)
}
