package acl

import "errors"

var (
	// ErrUnknownTag is returned for an unrecognized entry tag.
	ErrUnknownTag = errors.New("unknown ACL tag")

	// ErrUnknownType is returned for entry types other than ALLOW and DENY.
	ErrUnknownType = errors.New("unknown ACL entry type")

	// ErrUnknownPerm is returned for an unrecognized permission name.
	ErrUnknownPerm = errors.New("unknown permission")

	// ErrUnknownFlag is returned for an unrecognized flag name.
	ErrUnknownFlag = errors.New("unknown flag")

	// ErrUnknownBasicLevel is returned when a basic level has no bit pattern.
	ErrUnknownBasicLevel = errors.New("unknown basic level")

	// ErrIDRequired is returned when a USER or GROUP entry has no id.
	ErrIDRequired = errors.New("id is required for USER and GROUP entries")

	// ErrIDForbidden is returned when a special entry carries an id.
	ErrIDForbidden = errors.New("id must be unset for owner@, group@ and everyone@ entries")

	// ErrInheritOnlyWithoutScope is returned for INHERIT_ONLY without
	// FILE_INHERIT or DIRECTORY_INHERIT.
	ErrInheritOnlyWithoutScope = errors.New("DIRECTORY_INHERIT or FILE_INHERIT must be set if INHERIT_ONLY is set")

	// ErrNoInheritableEntry is returned when no non-locking entry is inheritable.
	ErrNoInheritableEntry = errors.New("at least one inheritable ACL entry is required")

	// ErrMultipleLockingEntries is returned when more than one locking entry is supplied.
	ErrMultipleLockingEntries = errors.New("at most one zero-permission everyone@ entry is permitted")

	// ErrTooManyEntries is returned when an ACL exceeds MaxEntries.
	ErrTooManyEntries = errors.New("ACL exceeds maximum entry count")

	// ErrStripWithEntries is returned when entries and a strip request are combined.
	ErrStripWithEntries = errors.New("setting ACL and stripping ACL are not permitted simultaneously")
)
