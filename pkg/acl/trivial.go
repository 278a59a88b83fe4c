package acl

// Mode bit positions for rwx triplets.
const (
	modeRead    = 0x4
	modeWrite   = 0x2
	modeExecute = 0x1
)

// inheritanceBits are the flags a trivial ACL never carries.
const inheritanceBits = ACE4_FILE_INHERIT_ACE | ACE4_DIRECTORY_INHERIT_ACE |
	ACE4_NO_PROPAGATE_INHERIT_ACE | ACE4_INHERIT_ONLY_ACE | ACE4_INHERITED_ACE

// baseMask is granted to every principal of a trivial ACL.
const baseMask = ACE4_READ_ACL | ACE4_READ_ATTRIBUTES | ACE4_READ_NAMED_ATTRS | ACE4_SYNCHRONIZE

// ownerMask is the set of administrative rights held by the owner.
const ownerMask = ACE4_WRITE_ACL | ACE4_WRITE_OWNER | ACE4_WRITE_ATTRIBUTES | ACE4_WRITE_NAMED_ATTRS

// adminOnlyMask must not be granted to group@ or everyone@ in a trivial ACL.
const adminOnlyMask = ACE4_WRITE_ACL | ACE4_WRITE_OWNER | ACE4_DELETE

// maxTrivialEntries bounds a trivial ACL: one allow and one deny per principal.
const maxTrivialEntries = 6

// IsTrivial reports whether entries can be expressed as a POSIX mode:
// only owner@, group@ and everyone@ entries, no inheritance, and no
// administrative rights outside the owner.
func IsTrivial(entries []RawEntry) bool {
	if len(entries) > maxTrivialEntries {
		return false
	}
	for _, e := range entries {
		if !e.Tag.IsSpecial() {
			return false
		}
		if e.Flags&inheritanceBits != 0 {
			return false
		}
		if e.Tag != TagOwner && e.Type == TypeAllow && e.Mask&adminOnlyMask != 0 {
			return false
		}
	}
	return true
}

// DeriveMode composes the 9-bit mode granted by owner@, group@ and
// everyone@ allow entries. Inherit-only entries are skipped.
func DeriveMode(entries []RawEntry) uint32 {
	var ownerBits, groupBits, otherBits uint32

	for _, e := range entries {
		if e.Type != TypeAllow || e.IsInheritOnly() {
			continue
		}

		rwx := maskToRWX(e.Mask)

		switch e.Tag {
		case TagOwner:
			ownerBits |= rwx
		case TagGroup:
			groupBits |= rwx
		case TagEveryone:
			otherBits |= rwx
		}
	}

	return (ownerBits << 6) | (groupBits << 3) | otherBits
}

// TrivialEntries builds the trivial ACL equivalent to mode.
func TrivialEntries(mode uint32, isDirectory bool) []RawEntry {
	ownerRWX := (mode >> 6) & 7
	groupRWX := (mode >> 3) & 7
	otherRWX := mode & 7

	return []RawEntry{
		{
			Tag:  TagOwner,
			ID:   -1,
			Type: TypeAllow,
			Mask: rwxToMask(ownerRWX, isDirectory) | baseMask | ownerMask,
		},
		{
			Tag:  TagGroup,
			ID:   -1,
			Type: TypeAllow,
			Mask: rwxToMask(groupRWX, isDirectory) | baseMask,
		},
		{
			Tag:  TagEveryone,
			ID:   -1,
			Type: TypeAllow,
			Mask: rwxToMask(otherRWX, isDirectory) | baseMask,
		},
	}
}

// maskToRWX converts ACE mask bits to a 3-bit rwx value.
func maskToRWX(mask uint32) uint32 {
	var rwx uint32
	if mask&ACE4_READ_DATA != 0 {
		rwx |= modeRead
	}
	if mask&(ACE4_WRITE_DATA|ACE4_APPEND_DATA) != 0 {
		rwx |= modeWrite
	}
	if mask&ACE4_EXECUTE != 0 {
		rwx |= modeExecute
	}
	return rwx
}

// rwxToMask converts a 3-bit rwx value to ACE mask bits. Write on a
// directory includes DELETE_CHILD.
func rwxToMask(rwx uint32, isDirectory bool) uint32 {
	var mask uint32
	if rwx&modeRead != 0 {
		mask |= ACE4_READ_DATA
	}
	if rwx&modeWrite != 0 {
		mask |= ACE4_WRITE_DATA | ACE4_APPEND_DATA
		if isDirectory {
			mask |= ACE4_DELETE_CHILD
		}
	}
	if rwx&modeExecute != 0 {
		mask |= ACE4_EXECUTE
	}
	return mask
}
