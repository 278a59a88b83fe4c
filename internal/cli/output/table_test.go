package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/job"
)

func sampleACL() *acl.ACL {
	return &acl.ACL{
		UID:  1000,
		GID:  100,
		Type: acl.ACLTypeNFS4,
		Entries: []acl.ACE{
			{Tag: acl.TagOwner, Type: acl.TypeAllow, Perms: acl.BasicPerms(acl.PermFullControl), Flags: acl.BasicFlags(acl.FlagInherit)},
			{Tag: acl.TagNamed, ID: acl.IntID(545), Type: acl.TypeAllow,
				Perms: acl.AdvancedPerms(acl.PermBits{acl.PermReadData: true, acl.PermExecute: true, acl.PermWriteACL: false}),
				Flags: acl.AdvancedFlags(acl.FlagBits{})},
		},
	}
}

func TestACLView_Rows(t *testing.T) {
	v := ACLView{Path: "/mnt/tank/share", ACL: *sampleACL()}
	rows := v.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"/mnt/tank/share", "1000", "100", "owner@", "-", "ALLOW", "FULL_CONTROL", "INHERIT"}, rows[0])
	assert.Equal(t, []string{"/mnt/tank/share", "1000", "100", "GROUP", "545", "ALLOW", "EXECUTE|READ_DATA", "-"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, EntriesView(sampleACL().Entries)))

	out := buf.String()
	assert.Contains(t, out, "TAG")
	assert.Contains(t, out, "owner@")
	assert.Contains(t, out, "FULL_CONTROL")
	assert.Contains(t, out, "EXECUTE|READ_DATA")
}

func TestPrintTable_GroupsRepeatedColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, ACLView{Path: "/mnt/tank/share", ACL: *sampleACL()}))

	assert.Equal(t, 1, strings.Count(buf.String(), "/mnt/tank/share"))
	assert.Contains(t, buf.String(), "EXECUTE|READ_DATA")
}

func TestCollapseGroups(t *testing.T) {
	rows := [][]string{
		{"/a", "1", "x"},
		{"/a", "1", "y"},
		{"/b", "1", "z"},
	}
	out := collapseGroups(rows, 2)
	assert.Equal(t, []string{"/a", "1", "x"}, out[0])
	assert.Equal(t, []string{"", "", "y"}, out[1])
	assert.Equal(t, []string{"/b", "1", "z"}, out[2])
	assert.Equal(t, "/a", rows[1][0], "input rows are not modified")
}

func TestPrintTable_EmptyNote(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, JobsView{}))
	assert.Equal(t, "No jobs\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintTable(&buf, NewTableData("Name")))
	assert.Equal(t, "(none)\n", buf.String())
}

func TestACLView_YAMLInline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, ACLView{Path: "/mnt/tank/share", ACL: *sampleACL()}))

	out := buf.String()
	assert.Contains(t, out, "path: /mnt/tank/share")
	assert.Contains(t, out, "acl_type: NFSV4")
	assert.Contains(t, out, "uid: 1000")
}

func TestJobsView(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	j := &job.Job{ID: "abc", Method: "filesystem.chown", State: job.StateSuccess, StartedAt: start, FinishedAt: &end,
		Progress: job.Step{Percent: 100}}

	rows := JobsView{j}.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "abc", rows[0][0])
	assert.Equal(t, "-", rows[0][2])
	assert.Equal(t, "100%", rows[0][4])
	assert.Equal(t, "1.5s", rows[0][6])

	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, JobView{*j}.Summary()))
	assert.Contains(t, buf.String(), "SUCCESS")
	assert.NotContains(t, buf.String(), "Error")
}
