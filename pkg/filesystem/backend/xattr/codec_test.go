package xattr

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_WireLayout(t *testing.T) {
	entries := []acl.RawEntry{
		{Tag: acl.TagOwner, ID: -1, Type: acl.TypeAllow, Mask: acl.FullControlMask, Flags: acl.InheritMask},
		{Tag: acl.TagNamed, ID: 545, Type: acl.TypeDeny, Mask: acl.ACE4_WRITE_DATA},
	}

	data, err := Marshal(entries, FlagIsDir)
	require.NoError(t, err)

	words := make([]uint32, len(data)/4)
	require.NoError(t, binary.Read(bytes.NewReader(data), binary.BigEndian, words))
	assert.Equal(t, []uint32{
		FlagIsDir, 2,
		0, acl.InheritMask, iflagSpecialWho, acl.FullControlMask, specialOwner,
		1, acl.ACE4_IDENTIFIER_GROUP, 0, acl.ACE4_WRITE_DATA, 545,
	}, words)
}

func TestMarshal_RoundTrip(t *testing.T) {
	entries := []acl.RawEntry{
		{Tag: acl.TagUser, ID: 1000, Type: acl.TypeAllow, Mask: acl.ModifyMask, Flags: acl.ACE4_FILE_INHERIT_ACE},
		{Tag: acl.TagNamed, ID: 0, Type: acl.TypeAllow, Mask: acl.ReadMask, Flags: acl.ACE4_IDENTIFIER_GROUP},
		{Tag: acl.TagGroup, ID: -1, Type: acl.TypeDeny, Mask: acl.ACE4_DELETE, Flags: acl.ACE4_INHERITED_ACE},
		{Tag: acl.TagEveryone, ID: -1, Type: acl.TypeAllow, Mask: 0, Flags: acl.InheritMask},
	}

	data, err := Marshal(entries, 0)
	require.NoError(t, err)

	got, flag, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), flag)
	assert.Equal(t, entries, got)
}

func TestMarshal_Rejects(t *testing.T) {
	_, err := Marshal([]acl.RawEntry{{Tag: acl.TagUser, ID: -1}}, 0)
	assert.ErrorIs(t, err, acl.ErrIDRequired)

	_, err = Marshal(make([]acl.RawEntry, acl.MaxEntries+1), 0)
	assert.ErrorIs(t, err, acl.ErrTooManyEntries)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, _, err := Unmarshal([]byte{0, 0})
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{0, 1, 7, 0, 0, 0, 0}))
	_, _, err = Unmarshal(buf.Bytes())
	assert.ErrorIs(t, err, acl.ErrUnknownType)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{0, 1, 0, 0, iflagSpecialWho, 0, 9}))
	_, _, err = Unmarshal(buf.Bytes())
	assert.ErrorIs(t, err, acl.ErrUnknownTag)
}
