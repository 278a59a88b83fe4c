// Package acl implements the NFSv4 ACL data model used by the permission
// subsystem: entries in their simplified ("basic") and advanced (named bit)
// forms, the codec between both, canonical ordering and payload validation.
//
// The package is free of filesystem access. Everything here is a pure
// transformation over values, so callers can share a Codec across goroutines.
package acl

import (
	"fmt"
	"strings"
)

// ACE types (acetype4) per RFC 7530 Section 6.2.1.
const (
	ACE4_ACCESS_ALLOWED_ACE_TYPE = 0x00000000
	ACE4_ACCESS_DENIED_ACE_TYPE  = 0x00000001
	ACE4_SYSTEM_AUDIT_ACE_TYPE   = 0x00000002
	ACE4_SYSTEM_ALARM_ACE_TYPE   = 0x00000003
)

// ACE flags (aceflag4) per RFC 7530 Section 6.2.1.
const (
	ACE4_FILE_INHERIT_ACE         = 0x00000001
	ACE4_DIRECTORY_INHERIT_ACE    = 0x00000002
	ACE4_NO_PROPAGATE_INHERIT_ACE = 0x00000004
	ACE4_INHERIT_ONLY_ACE         = 0x00000008
	ACE4_IDENTIFIER_GROUP         = 0x00000040
	ACE4_INHERITED_ACE            = 0x00000080
)

// ACE access mask bits (acemask4) per RFC 7530 Section 6.2.1.
const (
	ACE4_READ_DATA         = 0x00000001
	ACE4_WRITE_DATA        = 0x00000002
	ACE4_APPEND_DATA       = 0x00000004
	ACE4_READ_NAMED_ATTRS  = 0x00000008
	ACE4_WRITE_NAMED_ATTRS = 0x00000010
	ACE4_EXECUTE           = 0x00000020
	ACE4_DELETE_CHILD      = 0x00000040
	ACE4_READ_ATTRIBUTES   = 0x00000080
	ACE4_WRITE_ATTRIBUTES  = 0x00000100
	ACE4_DELETE            = 0x00010000
	ACE4_READ_ACL          = 0x00020000
	ACE4_WRITE_ACL         = 0x00040000
	ACE4_WRITE_OWNER       = 0x00080000
	ACE4_SYNCHRONIZE       = 0x00100000
)

// MaxEntries is the maximum number of entries accepted in a single ACL.
const MaxEntries = 128

// Tag identifies the principal an entry applies to.
type Tag string

const (
	TagOwner    Tag = "owner@"
	TagGroup    Tag = "group@"
	TagEveryone Tag = "everyone@"
	TagUser     Tag = "USER"
	TagNamed    Tag = "GROUP"
)

// ParseTag accepts the canonical tag names plus the legacy USER_OBJ,
// GROUP_OBJ and EVERYONE spellings.
func ParseTag(s string) (Tag, error) {
	switch strings.TrimSpace(s) {
	case "owner@", "USER_OBJ", "OWNER@":
		return TagOwner, nil
	case "group@", "GROUP_OBJ", "GROUP@":
		return TagGroup, nil
	case "everyone@", "EVERYONE", "EVERYONE@":
		return TagEveryone, nil
	case "USER":
		return TagUser, nil
	case "GROUP":
		return TagNamed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, s)
	}
}

// IsSpecial reports whether the tag is one of owner@, group@ or everyone@.
func (t Tag) IsSpecial() bool {
	return t == TagOwner || t == TagGroup || t == TagEveryone
}

// Type is the entry type. Only ALLOW and DENY are managed here.
type Type string

const (
	TypeAllow Type = "ALLOW"
	TypeDeny  Type = "DENY"
)

// ParseType parses an entry type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case TypeAllow:
		return TypeAllow, nil
	case TypeDeny:
		return TypeDeny, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// ACLType tags the dialect an ACL was read from.
type ACLType string

// ACLTypeNFS4 is the only dialect reported by the filesystem backends.
const ACLTypeNFS4 ACLType = "NFSV4"

// ACE is a single access control entry. ID is set only for USER and GROUP
// tags. Perms and Flags may each be either basic or advanced.
type ACE struct {
	Tag   Tag     `json:"tag" yaml:"tag"`
	ID    *int    `json:"id" yaml:"id"`
	Type  Type    `json:"type" yaml:"type"`
	Perms PermSet `json:"perms" yaml:"perms"`
	Flags FlagSet `json:"flags" yaml:"flags"`
}

// ACL is the ACL of a filesystem object together with its ownership.
type ACL struct {
	UID     int     `json:"uid" yaml:"uid"`
	GID     int     `json:"gid" yaml:"gid"`
	Entries []ACE   `json:"acl" yaml:"acl"`
	Type    ACLType `json:"acl_type" yaml:"acl_type"`
}

// IntID returns a pointer to id, for building USER/GROUP entries.
func IntID(id int) *int {
	return &id
}

// Who returns a short printable principal for the entry.
func (e ACE) Who() string {
	if e.ID == nil {
		return string(e.Tag)
	}
	return fmt.Sprintf("%s:%d", e.Tag, *e.ID)
}

// IsAllow reports whether the entry grants access.
func (e ACE) IsAllow() bool {
	return e.Type == TypeAllow
}

// Clone returns a deep copy of the entry.
func (e ACE) Clone() ACE {
	out := e
	if e.ID != nil {
		out.ID = IntID(*e.ID)
	}
	out.Perms = e.Perms.Clone()
	out.Flags = e.Flags.Clone()
	return out
}

// RawEntry is an entry in dialect bit form, as stored by the filesystem.
// ID is -1 for the special tags.
type RawEntry struct {
	Tag   Tag
	ID    int
	Type  Type
	Mask  uint32
	Flags uint32
}

// IsInherited reports whether the raw entry carries the INHERITED flag.
func (r RawEntry) IsInherited() bool {
	return r.Flags&ACE4_INHERITED_ACE != 0
}

// IsInheritOnly reports whether the raw entry carries the INHERIT_ONLY flag.
func (r RawEntry) IsInheritOnly() bool {
	return r.Flags&ACE4_INHERIT_ONLY_ACE != 0
}
