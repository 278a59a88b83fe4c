// Package memory is an in-memory permission backend. Objects are keyed by
// path and must be registered with Add before use.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
)

// Object is the permission state of one path.
type Object struct {
	UID   int
	GID   int
	Mode  uint32
	IsDir bool

	// ACL is nil while the object only has its trivial ACL.
	ACL []acl.RawEntry
}

// Backend stores objects in a map guarded by a mutex.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{objects: make(map[string]*Object)}
}

// Add registers or replaces the object at path.
func (b *Backend) Add(path string, obj Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := obj
	cp.ACL = cloneEntries(obj.ACL)
	b.objects[path] = &cp
}

// Get returns a copy of the object at path.
func (b *Backend) Get(path string) (Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[path]
	if !ok {
		return Object{}, false
	}
	cp := *obj
	cp.ACL = cloneEntries(obj.ACL)
	return cp, true
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "memory" }

// Stat implements backend.Backend.
func (b *Backend) Stat(_ context.Context, path string) (backend.Stat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[path]
	if !ok {
		return backend.Stat{}, fserrors.NewNotFoundError(path)
	}
	return backend.Stat{UID: obj.UID, GID: obj.GID, Mode: obj.Mode, IsDir: obj.IsDir}, nil
}

// GetACL implements backend.Backend.
func (b *Backend) GetACL(_ context.Context, path string) ([]acl.RawEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[path]
	if !ok {
		return nil, fserrors.NewNotFoundError(path)
	}
	if obj.ACL == nil {
		return acl.TrivialEntries(obj.Mode, obj.IsDir), nil
	}
	return cloneEntries(obj.ACL), nil
}

// SetACL implements backend.Backend. The mode follows the new ACL.
func (b *Backend) SetACL(_ context.Context, path string, entries []acl.RawEntry) error {
	return b.update(path, func(obj *Object) {
		obj.ACL = cloneEntries(entries)
		obj.Mode = obj.Mode&^0o777 | acl.DeriveMode(entries)
	})
}

// StripACL implements backend.Backend.
func (b *Backend) StripACL(_ context.Context, path string) error {
	return b.update(path, func(obj *Object) {
		obj.ACL = nil
	})
}

// Chmod implements backend.Backend. A trivial ACL is replaced by the new
// mode; an extended ACL is kept.
func (b *Backend) Chmod(_ context.Context, path string, mode uint32) error {
	return b.update(path, func(obj *Object) {
		obj.Mode = mode & 0o7777
		if obj.ACL != nil && acl.IsTrivial(obj.ACL) {
			obj.ACL = nil
		}
	})
}

// Chown implements backend.Backend.
func (b *Backend) Chown(_ context.Context, path string, uid, gid int) error {
	return b.update(path, func(obj *Object) {
		if uid != backend.Unchanged {
			obj.UID = uid
		}
		if gid != backend.Unchanged {
			obj.GID = gid
		}
	})
}

func (b *Backend) update(path string, fn func(*Object)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[path]
	if !ok {
		return fserrors.NewNotFoundError(path)
	}
	fn(obj)
	return nil
}

func cloneEntries(entries []acl.RawEntry) []acl.RawEntry {
	if entries == nil {
		return nil
	}
	out := make([]acl.RawEntry, len(entries))
	copy(out, entries)
	return out
}

var _ backend.Backend = (*Backend)(nil)
