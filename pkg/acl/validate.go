package acl

import "fmt"

// Scan summarizes a validated entry list.
type Scan struct {
	// Entries holds the input in advanced form, in input order.
	Entries []ACE

	// LockingEntries counts zero-permission everyone@ allow entries.
	LockingEntries int

	// Inheritable reports whether a non-locking entry sets FILE_INHERIT or
	// DIRECTORY_INHERIT.
	Inheritable bool
}

// HasLockingEntry reports whether the locking entry was supplied.
func (s Scan) HasLockingEntry() bool {
	return s.LockingEntries > 0
}

// ValidateSetOptions rejects a request carrying entries and a strip flag.
func ValidateSetOptions(hasEntries, stripACL bool) error {
	if hasEntries && stripACL {
		return ErrStripWithEntries
	}
	return nil
}

// Basic levels accepted from callers. NOPERMS and
// OTHER are only ever reported.
var (
	callerPermLevels = map[BasicPerm]bool{PermFullControl: true, PermModify: true, PermRead: true, PermTraverse: true}
	callerFlagLevels = map[BasicFlag]bool{FlagInherit: true, FlagNoInherit: true}
)

func checkCallerLevels(e ACE) error {
	if e.Perms.IsBasic() && !callerPermLevels[e.Perms.Basic] {
		return fmt.Errorf("%w: %q", ErrUnknownBasicLevel, e.Perms.Basic)
	}
	if e.Flags.IsBasic() && !callerFlagLevels[e.Flags.Basic] {
		return fmt.Errorf("%w: %q", ErrUnknownBasicLevel, e.Flags.Basic)
	}
	return nil
}

// ValidateEntries checks a proposed ACL and returns it in advanced form.
//
// Each entry must name a valid principal and carry bits or one of the
// levels FULL_CONTROL, MODIFY, READ, TRAVERSE, INHERIT and NOINHERIT.
// INHERIT_ONLY needs FILE_INHERIT or DIRECTORY_INHERIT. At least one
// non-locking entry must be inheritable and at most one locking entry may
// be present.
func (c *Codec) ValidateEntries(entries []ACE) (Scan, error) {
	if len(entries) > MaxEntries {
		return Scan{}, fmt.Errorf("%w: %d entries (maximum %d)", ErrTooManyEntries, len(entries), MaxEntries)
	}

	scan := Scan{Entries: make([]ACE, 0, len(entries))}
	for i, e := range entries {
		if err := checkPrincipal(e); err != nil {
			return Scan{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.Type != TypeAllow && e.Type != TypeDeny {
			return Scan{}, fmt.Errorf("entry %d: %w: %q", i, ErrUnknownType, e.Type)
		}
		if err := checkCallerLevels(e); err != nil {
			return Scan{}, fmt.Errorf("entry %d: %w", i, err)
		}

		adv, err := c.Expand(e)
		if err != nil {
			return Scan{}, fmt.Errorf("entry %d: %w", i, err)
		}

		flags := adv.Flags.Bits
		if flags[FlagInheritOnly] && !flags[FlagFileInherit] && !flags[FlagDirectoryInherit] {
			return Scan{}, fmt.Errorf("entry %d: %w", i, ErrInheritOnlyWithoutScope)
		}

		if c.IsLockingEntry(adv) {
			scan.LockingEntries++
		} else if flags[FlagFileInherit] || flags[FlagDirectoryInherit] {
			scan.Inheritable = true
		}

		scan.Entries = append(scan.Entries, adv)
	}

	if !scan.Inheritable {
		return Scan{}, ErrNoInheritableEntry
	}
	if scan.LockingEntries > 1 {
		return Scan{}, ErrMultipleLockingEntries
	}
	return scan, nil
}

// Prepare validates entries, optionally canonicalizes them and appends the
// locking entry when none was supplied. The result is ready to be written.
func (c *Codec) Prepare(entries []ACE, canonicalize bool) ([]ACE, error) {
	scan, err := c.ValidateEntries(entries)
	if err != nil {
		return nil, err
	}

	out := scan.Entries
	if canonicalize {
		if out, err = c.Canonicalize(out); err != nil {
			return nil, err
		}
	}

	if !scan.HasLockingEntry() {
		lock, err := c.LockingEntry()
		if err != nil {
			return nil, err
		}
		out = append(out, lock)
	}
	return out, nil
}

func checkPrincipal(e ACE) error {
	switch e.Tag {
	case TagOwner, TagGroup, TagEveryone:
		if e.ID != nil {
			return fmt.Errorf("%s: %w", e.Tag, ErrIDForbidden)
		}
	case TagUser, TagNamed:
		if e.ID == nil {
			return fmt.Errorf("%s: %w", e.Tag, ErrIDRequired)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTag, e.Tag)
	}
	return nil
}
