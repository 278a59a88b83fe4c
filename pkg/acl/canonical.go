package acl

import (
	"fmt"
	"sort"
)

// IsInheritable reports whether any inheritance-control flag is set.
func IsInheritable(bits FlagBits) bool {
	return bits[FlagFileInherit] || bits[FlagDirectoryInherit] ||
		bits[FlagNoPropagateInherit] || bits[FlagInheritOnly]
}

// Canonicalize orders entries the way Windows expects a DACL: explicit
// entries before inherited ones, and within each group deny before allow
// with non-inheritable entries ahead of inheritable ones. Entries sharing a
// sort key keep their relative order. Flags are returned in advanced form.
func (c *Codec) Canonicalize(entries []ACE) ([]ACE, error) {
	explicit := make([]ACE, 0, len(entries))
	var inherited []ACE

	for i, e := range entries {
		flags, err := c.ExpandFlags(e.Flags)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out := e.Clone()
		out.Flags = AdvancedFlags(flags)
		if flags[FlagInherited] {
			inherited = append(inherited, out)
		} else {
			explicit = append(explicit, out)
		}
	}

	sortCanonical(explicit)
	sortCanonical(inherited)

	return append(explicit, inherited...), nil
}

func sortCanonical(entries []ACE) {
	sort.SliceStable(entries, func(i, j int) bool {
		return canonicalRank(entries[i]) < canonicalRank(entries[j])
	})
}

// canonicalRank encodes the (isAllow, isInheritable) key, false before true.
func canonicalRank(e ACE) int {
	rank := 0
	if e.IsAllow() {
		rank += 2
	}
	if IsInheritable(e.Flags.Bits) {
		rank++
	}
	return rank
}

// IsCanonical reports whether entries already follow the canonical bucket
// order: explicit deny, explicit allow, inherited deny, inherited allow.
func (c *Codec) IsCanonical(entries []ACE) (bool, error) {
	last := 0
	for i, e := range entries {
		flags, err := c.ExpandFlags(e.Flags)
		if err != nil {
			return false, fmt.Errorf("entry %d: %w", i, err)
		}
		b := bucket(e.Type, flags[FlagInherited])
		if b < last {
			return false, nil
		}
		last = b
	}
	return true, nil
}

func bucket(t Type, inherited bool) int {
	base := 0
	if inherited {
		base = 2
	}
	if t == TypeAllow {
		return base + 2
	}
	return base + 1
}
