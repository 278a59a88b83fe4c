package acl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestACE_WireForm(t *testing.T) {
	payload := `[
		{"tag": "owner@", "id": null, "type": "ALLOW",
		 "perms": {"BASIC": "FULL_CONTROL"}, "flags": {"BASIC": "INHERIT"}},
		{"tag": "GROUP", "id": 545, "type": "allow",
		 "perms": {"READ_DATA": true, "WRITE_DATA": false},
		 "flags": {"FILE_INHERIT": true, "INHERITED": true}},
		{"tag": "EVERYONE", "id": null, "type": "DENY",
		 "perms": {"BASIC": "READ"}, "flags": {"BASIC": "NOINHERIT"}}
	]`

	var entries []ACE
	require.NoError(t, json.Unmarshal([]byte(payload), &entries))
	require.Len(t, entries, 3)

	assert.Equal(t, TagOwner, entries[0].Tag)
	assert.Nil(t, entries[0].ID)
	assert.Equal(t, BasicPerms(PermFullControl), entries[0].Perms)

	assert.Equal(t, TagNamed, entries[1].Tag)
	require.NotNil(t, entries[1].ID)
	assert.Equal(t, 545, *entries[1].ID)
	assert.Equal(t, TypeAllow, entries[1].Type)
	assert.Equal(t, PermBits{PermReadData: true, PermWriteData: false}, entries[1].Perms.Bits)
	assert.True(t, entries[1].Flags.Bits[FlagInherited])

	assert.Equal(t, TagEveryone, entries[2].Tag, "legacy tag is normalized")

	out, err := json.Marshal(entries[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"owner@","id":null,"type":"ALLOW","perms":{"BASIC":"FULL_CONTROL"},"flags":{"BASIC":"INHERIT"}}`, string(out))
}

func TestACE_WireFormRejectsUnknownNames(t *testing.T) {
	var e ACE

	err := json.Unmarshal([]byte(`{"tag":"owner@","type":"ALLOW","perms":{"READ_EVERYTHING":true},"flags":{"BASIC":"INHERIT"}}`), &e)
	assert.ErrorIs(t, err, ErrUnknownPerm)

	err = json.Unmarshal([]byte(`{"tag":"nobody@","type":"ALLOW","perms":{"BASIC":"READ"},"flags":{"BASIC":"INHERIT"}}`), &e)
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestACE_YAML(t *testing.T) {
	doc := `
- tag: group@
  type: ALLOW
  perms:
    BASIC: MODIFY
  flags:
    DIRECTORY_INHERIT: true
    INHERIT_ONLY: true
`
	var entries []ACE
	require.NoError(t, yaml.Unmarshal([]byte(doc), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, TagGroup, entries[0].Tag)
	assert.Equal(t, PermModify, entries[0].Perms.Basic)
	assert.Equal(t, FlagBits{FlagDirectoryInherit: true, FlagInheritOnly: true}, entries[0].Flags.Bits)
}
