// Package sid provides Windows Security Identifier (SID) parsing and
// formatting, and the well-known SIDs the permission subsystem maps onto
// Unix groups.
//
// The string format is "S-{Revision}-{Authority}-{SubAuth1}-...-{SubAuthN}"
// per MS-DTYP Section 2.4.2.
package sid

import (
	"fmt"
	"strconv"
	"strings"
)

// SID represents a Windows Security Identifier per MS-DTYP Section 2.4.2.
type SID struct {
	// Revision is always 1.
	Revision uint8

	// IdentifierAuthority is the top-level authority (48 bits).
	IdentifierAuthority uint64

	// SubAuthorities contains the sub-authority values.
	SubAuthorities []uint32
}

// FormatSID formats a SID as a string in "S-1-5-21-..." format.
func FormatSID(sid *SID) string {
	var b strings.Builder
	fmt.Fprintf(&b, "S-%d-%d", sid.Revision, sid.IdentifierAuthority)
	for _, sa := range sid.SubAuthorities {
		fmt.Fprintf(&b, "-%d", sa)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (s *SID) String() string {
	return FormatSID(s)
}

// ParseSIDString parses a SID string in "S-1-5-21-..." format.
func ParseSIDString(s string) (*SID, error) {
	if !strings.HasPrefix(s, "S-") {
		return nil, fmt.Errorf("invalid SID format: must start with S-")
	}

	parts := strings.Split(s[2:], "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid SID format: need at least revision and authority")
	}

	revision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision: %w", err)
	}

	authority, err := strconv.ParseUint(parts[1], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority: %w", err)
	}

	sid := &SID{
		Revision:            uint8(revision),
		IdentifierAuthority: authority,
		SubAuthorities:      make([]uint32, len(parts)-2),
	}

	for i := range sid.SubAuthorities {
		val, err := strconv.ParseUint(parts[i+2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority %d: %w", i, err)
		}
		sid.SubAuthorities[i] = uint32(val)
	}

	return sid, nil
}

// ParseSIDMust parses a SID string and panics on error. Used for well-known SIDs.
func ParseSIDMust(s string) *SID {
	sid, err := ParseSIDString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid well-known SID %q: %v", s, err))
	}
	return sid
}

// RID returns the relative identifier, the last sub-authority.
func (s *SID) RID() (uint32, bool) {
	if s == nil || len(s.SubAuthorities) == 0 {
		return 0, false
	}
	return s.SubAuthorities[len(s.SubAuthorities)-1], true
}

// IsBuiltin reports whether the SID lives in the BUILTIN domain (S-1-5-32).
func (s *SID) IsBuiltin() bool {
	return s != nil && s.IdentifierAuthority == 5 &&
		len(s.SubAuthorities) == 2 && s.SubAuthorities[0] == 32
}

// Equal reports whether two SIDs are identical.
func (s *SID) Equal(other *SID) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.Revision != other.Revision || s.IdentifierAuthority != other.IdentifierAuthority {
		return false
	}
	if len(s.SubAuthorities) != len(other.SubAuthorities) {
		return false
	}
	for i := range s.SubAuthorities {
		if s.SubAuthorities[i] != other.SubAuthorities[i] {
			return false
		}
	}
	return true
}
