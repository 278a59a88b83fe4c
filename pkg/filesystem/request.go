package filesystem

import (
	"fmt"
	"strconv"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend"
)

// Progress receives checkpoints of a running operation.
type Progress interface {
	SetProgress(percent int, description string)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(percent int, description string)

// SetProgress implements Progress.
func (f ProgressFunc) SetProgress(percent int, description string) { f(percent, description) }

// NoProgress discards checkpoints.
var NoProgress Progress = ProgressFunc(func(int, string) {})

// Ownership is an optional owner and group. Nil fields are left unchanged.
type Ownership struct {
	UID *int `json:"uid" yaml:"uid"`
	GID *int `json:"gid" yaml:"gid"`
}

// IDs returns uid and gid with backend.Unchanged for unset fields.
func (o Ownership) IDs() (int, int) {
	uid, gid := backend.Unchanged, backend.Unchanged
	if o.UID != nil {
		uid = *o.UID
	}
	if o.GID != nil {
		gid = *o.GID
	}
	return uid, gid
}

// IsSet reports whether either field is set.
func (o Ownership) IsSet() bool {
	return o.UID != nil || o.GID != nil
}

// RecursionOptions control delegation to the tree helper.
type RecursionOptions struct {
	// Recursive applies the change to every descendant.
	Recursive bool `json:"recursive" yaml:"recursive"`

	// Traverse lets a recursive change cross into child filesystems.
	Traverse bool `json:"traverse" yaml:"traverse"`
}

// SetACLOptions are the options of SetACL.
type SetACLOptions struct {
	RecursionOptions `yaml:",inline"`

	// StripACL converts the ACL to trivial instead of writing entries.
	StripACL bool `json:"stripacl" yaml:"stripacl"`

	// Canonicalize reorders entries into canonical order. Defaults to true.
	Canonicalize bool `json:"canonicalize" yaml:"canonicalize"`
}

// SetACLRequest replaces the ACL of Path.
type SetACLRequest struct {
	Path      string `json:"path" yaml:"path" validate:"required"`
	Ownership `yaml:",inline"`
	Entries   []acl.ACE     `json:"dacl" yaml:"dacl" validate:"max=128"`
	Options   SetACLOptions `json:"options" yaml:"options"`
}

// NewSetACLRequest returns a request with the default options.
func NewSetACLRequest(path string) SetACLRequest {
	return SetACLRequest{Path: path, Options: SetACLOptions{Canonicalize: true}}
}

// SetPermOptions are the options of SetPerm.
type SetPermOptions struct {
	RecursionOptions `yaml:",inline"`

	// StripACL allows replacing a non-trivial ACL.
	StripACL bool `json:"stripacl" yaml:"stripacl"`
}

// SetPermRequest sets a POSIX mode and ownership on Path.
type SetPermRequest struct {
	Path      string `json:"path" yaml:"path" validate:"required"`
	Ownership `yaml:",inline"`

	// Mode is an octal string such as "755". Nil leaves the mode alone.
	Mode    *string        `json:"mode" yaml:"mode"`
	Options SetPermOptions `json:"options" yaml:"options"`
}

// ChownRequest changes ownership of Path.
type ChownRequest struct {
	Path      string `json:"path" yaml:"path" validate:"required"`
	Ownership `yaml:",inline"`
	Options   RecursionOptions `json:"options" yaml:"options"`
}

// ParseMode parses an octal permission string.
func ParseMode(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil || v > 0o7777 {
		return 0, fmt.Errorf("invalid mode %q: expected octal permission bits", s)
	}
	return uint32(v), nil
}
