package acl

// Dialect maps permission and flag names onto the bit values of one ACL
// implementation, and bit patterns back onto basic levels.
type Dialect interface {
	// Type is the tag reported in ACLs read through this dialect.
	Type() ACLType

	// PermBit returns the bit value of a named permission.
	PermBit(p Perm) (uint32, bool)

	// FlagBit returns the bit value of a named flag.
	FlagBit(f Flag) (uint32, bool)

	// BasicPermOf returns the level whose pattern equals mask, or PermOther.
	BasicPermOf(mask uint32) BasicPerm

	// BasicFlagOf returns the level whose pattern equals mask, or FlagOther.
	BasicFlagOf(mask uint32) BasicFlag

	// PermLevel returns the bit pattern of a basic permission level.
	PermLevel(level BasicPerm) (uint32, bool)

	// FlagLevel returns the bit pattern of a basic flag level.
	FlagLevel(level BasicFlag) (uint32, bool)
}

// AllPerms lists every named permission in bit order.
var AllPerms = []Perm{
	PermReadData,
	PermWriteData,
	PermAppendData,
	PermReadNamedAttrs,
	PermWriteNamedAttrs,
	PermExecute,
	PermDeleteChild,
	PermReadAttributes,
	PermWriteAttributes,
	PermDelete,
	PermReadACL,
	PermWriteACL,
	PermWriteOwner,
	PermSynchronize,
}

// AllFlags lists every named flag in bit order.
var AllFlags = []Flag{
	FlagFileInherit,
	FlagDirectoryInherit,
	FlagNoPropagateInherit,
	FlagInheritOnly,
	FlagInherited,
}

func isKnownPerm(p Perm) bool {
	_, ok := nfs4PermBits[p]
	return ok
}

func isKnownFlag(f Flag) bool {
	_, ok := nfs4FlagBits[f]
	return ok
}

var nfs4PermBits = map[Perm]uint32{
	PermReadData:        ACE4_READ_DATA,
	PermWriteData:       ACE4_WRITE_DATA,
	PermAppendData:      ACE4_APPEND_DATA,
	PermReadNamedAttrs:  ACE4_READ_NAMED_ATTRS,
	PermWriteNamedAttrs: ACE4_WRITE_NAMED_ATTRS,
	PermExecute:         ACE4_EXECUTE,
	PermDeleteChild:     ACE4_DELETE_CHILD,
	PermReadAttributes:  ACE4_READ_ATTRIBUTES,
	PermWriteAttributes: ACE4_WRITE_ATTRIBUTES,
	PermDelete:          ACE4_DELETE,
	PermReadACL:         ACE4_READ_ACL,
	PermWriteACL:        ACE4_WRITE_ACL,
	PermWriteOwner:      ACE4_WRITE_OWNER,
	PermSynchronize:     ACE4_SYNCHRONIZE,
}

var nfs4FlagBits = map[Flag]uint32{
	FlagFileInherit:        ACE4_FILE_INHERIT_ACE,
	FlagDirectoryInherit:   ACE4_DIRECTORY_INHERIT_ACE,
	FlagNoPropagateInherit: ACE4_NO_PROPAGATE_INHERIT_ACE,
	FlagInheritOnly:        ACE4_INHERIT_ONLY_ACE,
	FlagInherited:          ACE4_INHERITED_ACE,
}

// Basic permission patterns, matching the FreeBSD NFSv4 ACL permsets.
const (
	FullControlMask uint32 = ACE4_READ_DATA | ACE4_WRITE_DATA | ACE4_APPEND_DATA |
		ACE4_READ_NAMED_ATTRS | ACE4_WRITE_NAMED_ATTRS | ACE4_EXECUTE |
		ACE4_DELETE_CHILD | ACE4_READ_ATTRIBUTES | ACE4_WRITE_ATTRIBUTES |
		ACE4_DELETE | ACE4_READ_ACL | ACE4_WRITE_ACL | ACE4_WRITE_OWNER |
		ACE4_SYNCHRONIZE

	ModifyMask uint32 = FullControlMask &^ (ACE4_WRITE_ACL | ACE4_WRITE_OWNER)

	ReadMask uint32 = ACE4_READ_DATA | ACE4_READ_NAMED_ATTRS | ACE4_READ_ATTRIBUTES |
		ACE4_READ_ACL | ACE4_EXECUTE

	TraverseMask uint32 = ACE4_EXECUTE | ACE4_READ_NAMED_ATTRS | ACE4_READ_ATTRIBUTES |
		ACE4_READ_ACL

	InheritMask uint32 = ACE4_FILE_INHERIT_ACE | ACE4_DIRECTORY_INHERIT_ACE
)

var nfs4PermLevels = map[BasicPerm]uint32{
	PermNone:        0,
	PermFullControl: FullControlMask,
	PermModify:      ModifyMask,
	PermRead:        ReadMask,
	PermTraverse:    TraverseMask,
}

var nfs4FlagLevels = map[BasicFlag]uint32{
	FlagNoInherit: 0,
	FlagInherit:   InheritMask,
}

type nfs4Dialect struct{}

// NFS4 is the RFC 7530 dialect used by ZFS and the Linux NFS client.
var NFS4 Dialect = nfs4Dialect{}

func (nfs4Dialect) Type() ACLType { return ACLTypeNFS4 }

func (nfs4Dialect) PermBit(p Perm) (uint32, bool) {
	v, ok := nfs4PermBits[p]
	return v, ok
}

func (nfs4Dialect) FlagBit(f Flag) (uint32, bool) {
	v, ok := nfs4FlagBits[f]
	return v, ok
}

func (nfs4Dialect) BasicPermOf(mask uint32) BasicPerm {
	for level, pattern := range nfs4PermLevels {
		if pattern == mask {
			return level
		}
	}
	return PermOther
}

func (nfs4Dialect) BasicFlagOf(mask uint32) BasicFlag {
	for level, pattern := range nfs4FlagLevels {
		if pattern == mask {
			return level
		}
	}
	return FlagOther
}

func (nfs4Dialect) PermLevel(level BasicPerm) (uint32, bool) {
	v, ok := nfs4PermLevels[level]
	return v, ok
}

func (nfs4Dialect) FlagLevel(level BasicFlag) (uint32, bool) {
	v, ok := nfs4FlagLevels[level]
	return v, ok
}
