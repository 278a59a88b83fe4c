// Package xattr stores NFSv4 ACLs in the system.nfs4_acl_xdr extended
// attribute used by OpenZFS on Linux.
//
// The attribute holds an XDR encoded nfsacl41i:
//
//	struct nfsace4i {
//	    uint32 type;
//	    uint32 flag;
//	    uint32 iflag;
//	    uint32 access_mask;
//	    uint32 who;
//	};
//	struct nfsacl41i {
//	    uint32    acl_flag;
//	    nfsace4i  aces<>;
//	};
//
// Special principals set ACEI4_SPECIAL_WHO in iflag and carry one of the
// ACE4_SPECIAL_* values in who.
package xattr

import (
	"bytes"
	"fmt"

	"github.com/marmos91/dittoacl/pkg/acl"
	xdr "github.com/rasky/go-xdr/xdr2"
)

// AttrName is the extended attribute holding the ACL.
const AttrName = "system.nfs4_acl_xdr"

// iflag bits.
const (
	iflagSpecialWho = 0x1
)

// Special who values.
const (
	specialOwner    = 1
	specialGroup    = 2
	specialEveryone = 3
)

// acl_flag bits.
const (
	FlagAutoInherit = 0x1
	FlagProtected   = 0x2
	FlagDefaulted   = 0x4
	FlagIsTrivial   = 0x10000
	FlagIsDir       = 0x20000
)

// nfsace4i is one on-disk entry.
type nfsace4i struct {
	Type       uint32
	Flag       uint32
	IFlag      uint32
	AccessMask uint32
	Who        uint32
}

// nfsacl41i is the on-disk ACL.
type nfsacl41i struct {
	ACLFlag uint32
	ACEs    []nfsace4i
}

// Marshal encodes entries with the given acl_flag.
func Marshal(entries []acl.RawEntry, aclFlag uint32) ([]byte, error) {
	if len(entries) > acl.MaxEntries {
		return nil, fmt.Errorf("%w: %d", acl.ErrTooManyEntries, len(entries))
	}

	wire := nfsacl41i{ACLFlag: aclFlag, ACEs: make([]nfsace4i, 0, len(entries))}
	for _, e := range entries {
		ace, err := toWire(e)
		if err != nil {
			return nil, err
		}
		wire.ACEs = append(wire.ACEs, ace)
	}

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, &wire); err != nil {
		return nil, fmt.Errorf("encode %s: %w", AttrName, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an attribute value into entries and its acl_flag.
func Unmarshal(data []byte) ([]acl.RawEntry, uint32, error) {
	var wire nfsacl41i
	if _, err := xdr.Unmarshal(bytes.NewReader(data), &wire); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", AttrName, err)
	}
	if len(wire.ACEs) > acl.MaxEntries {
		return nil, 0, fmt.Errorf("%w: %d", acl.ErrTooManyEntries, len(wire.ACEs))
	}

	entries := make([]acl.RawEntry, 0, len(wire.ACEs))
	for _, ace := range wire.ACEs {
		e, err := fromWire(ace)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, wire.ACLFlag, nil
}

func toWire(e acl.RawEntry) (nfsace4i, error) {
	ace := nfsace4i{
		Type:       uint32(typeValue(e.Type)),
		Flag:       e.Flags,
		AccessMask: e.Mask,
	}

	switch e.Tag {
	case acl.TagOwner:
		ace.IFlag, ace.Who = iflagSpecialWho, specialOwner
	case acl.TagGroup:
		ace.IFlag, ace.Who = iflagSpecialWho, specialGroup
	case acl.TagEveryone:
		ace.IFlag, ace.Who = iflagSpecialWho, specialEveryone
	case acl.TagUser:
		ace.Flag &^= acl.ACE4_IDENTIFIER_GROUP
		ace.Who = uint32(e.ID)
	case acl.TagNamed:
		ace.Flag |= acl.ACE4_IDENTIFIER_GROUP
		ace.Who = uint32(e.ID)
	default:
		return nfsace4i{}, fmt.Errorf("%w: %q", acl.ErrUnknownTag, e.Tag)
	}
	if !e.Tag.IsSpecial() && e.ID < 0 {
		return nfsace4i{}, fmt.Errorf("%w: %s", acl.ErrIDRequired, e.Tag)
	}
	return ace, nil
}

func fromWire(ace nfsace4i) (acl.RawEntry, error) {
	e := acl.RawEntry{ID: -1, Mask: ace.AccessMask, Flags: ace.Flag}

	switch ace.Type {
	case acl.ACE4_ACCESS_ALLOWED_ACE_TYPE:
		e.Type = acl.TypeAllow
	case acl.ACE4_ACCESS_DENIED_ACE_TYPE:
		e.Type = acl.TypeDeny
	default:
		return acl.RawEntry{}, fmt.Errorf("%w: %d", acl.ErrUnknownType, ace.Type)
	}

	if ace.IFlag&iflagSpecialWho != 0 {
		switch ace.Who {
		case specialOwner:
			e.Tag = acl.TagOwner
		case specialGroup:
			e.Tag = acl.TagGroup
		case specialEveryone:
			e.Tag = acl.TagEveryone
		default:
			return acl.RawEntry{}, fmt.Errorf("%w: special who %d", acl.ErrUnknownTag, ace.Who)
		}
		return e, nil
	}

	e.ID = int(ace.Who)
	if ace.Flag&acl.ACE4_IDENTIFIER_GROUP != 0 {
		e.Tag = acl.TagNamed
	} else {
		e.Tag = acl.TagUser
	}
	return e, nil
}

func typeValue(t acl.Type) int {
	if t == acl.TypeDeny {
		return acl.ACE4_ACCESS_DENIED_ACE_TYPE
	}
	return acl.ACE4_ACCESS_ALLOWED_ACE_TYPE
}
