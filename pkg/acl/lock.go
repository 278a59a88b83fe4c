package acl

// IsLockingEntry reports whether e is the zero-permission everyone@ allow
// entry appended to non-trivial ACLs. Other principals with no permissions
// are ordinary entries.
func (c *Codec) IsLockingEntry(e ACE) bool {
	if e.Tag != TagEveryone || e.Type != TypeAllow {
		return false
	}
	if e.Perms.IsBasic() {
		return e.Perms.Basic == PermNone
	}
	return c.ToBasicPerms(e.Perms.Bits) == PermNone
}

// LockingEntry builds the everyone@ entry that stops further inheritance.
func (c *Codec) LockingEntry() (ACE, error) {
	return c.Expand(ACE{
		Tag:   TagEveryone,
		Type:  TypeAllow,
		Perms: BasicPerms(PermNone),
		Flags: BasicFlags(FlagInherit),
	})
}

// StripLockingEntries drops every locking entry. ACLs handed to callers
// never show it.
func (c *Codec) StripLockingEntries(entries []ACE) []ACE {
	out := make([]ACE, 0, len(entries))
	for _, e := range entries {
		if c.IsLockingEntry(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}
