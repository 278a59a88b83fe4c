package acl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(tag Tag, id *int, typ Type, perms BasicPerm, flags FlagBits) ACE {
	return ACE{Tag: tag, ID: id, Type: typ, Perms: BasicPerms(perms), Flags: AdvancedFlags(flags)}
}

func whoTypes(entries []ACE) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Who()+"/"+string(e.Type))
	}
	return out
}

func TestCanonicalize_BucketOrder(t *testing.T) {
	c := NewCodec(nil)

	inherited := FlagBits{FlagInherited: true}
	explicit := FlagBits{}

	in := []ACE{
		entry(TagUser, IntID(4), TypeAllow, PermRead, inherited),
		entry(TagUser, IntID(3), TypeDeny, PermRead, inherited),
		entry(TagUser, IntID(2), TypeAllow, PermRead, explicit),
		entry(TagUser, IntID(1), TypeDeny, PermRead, explicit),
	}

	out, err := c.Canonicalize(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER:1/DENY", "USER:2/ALLOW", "USER:3/DENY", "USER:4/ALLOW"}, whoTypes(out))

	ok, err := c.IsCanonical(out)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsCanonical(in)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanonicalize_InheritableSecondaryKey(t *testing.T) {
	c := NewCodec(nil)

	in := []ACE{
		entry(TagUser, IntID(1), TypeAllow, PermRead, FlagBits{FlagFileInherit: true}),
		entry(TagUser, IntID(2), TypeAllow, PermRead, FlagBits{}),
		entry(TagUser, IntID(3), TypeDeny, PermRead, FlagBits{FlagInheritOnly: true, FlagDirectoryInherit: true}),
		entry(TagUser, IntID(4), TypeDeny, PermRead, FlagBits{}),
	}

	out, err := c.Canonicalize(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER:4/DENY", "USER:3/DENY", "USER:2/ALLOW", "USER:1/ALLOW"}, whoTypes(out))
}

func TestCanonicalize_StableWithinKey(t *testing.T) {
	c := NewCodec(nil)

	in := []ACE{
		entry(TagUser, IntID(10), TypeAllow, PermRead, FlagBits{}),
		entry(TagUser, IntID(11), TypeAllow, PermModify, FlagBits{}),
		entry(TagUser, IntID(12), TypeDeny, PermRead, FlagBits{}),
		entry(TagUser, IntID(13), TypeAllow, PermTraverse, FlagBits{}),
	}

	out, err := c.Canonicalize(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER:12/DENY", "USER:10/ALLOW", "USER:11/ALLOW", "USER:13/ALLOW"}, whoTypes(out))
}

func TestCanonicalize_ExpandsBasicFlags(t *testing.T) {
	c := NewCodec(nil)

	in := []ACE{{
		Tag:   TagOwner,
		Type:  TypeAllow,
		Perms: BasicPerms(PermFullControl),
		Flags: BasicFlags(FlagInherit),
	}}

	out, err := c.Canonicalize(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].Flags.IsBasic())
	assert.True(t, out[0].Flags.Bits[FlagFileInherit])
	assert.True(t, out[0].Flags.Bits[FlagDirectoryInherit])
	assert.Equal(t, BasicPerms(PermFullControl), out[0].Perms, "perms are left as given")

	assert.True(t, in[0].Flags.IsBasic(), "input must not be modified")
}

func TestCanonicalize_UnknownFlagLevel(t *testing.T) {
	c := NewCodec(nil)

	_, err := c.Canonicalize([]ACE{{Tag: TagOwner, Type: TypeAllow, Perms: BasicPerms(PermRead), Flags: BasicFlags("SOMETIMES")}})
	assert.ErrorIs(t, err, ErrUnknownBasicLevel)
}
