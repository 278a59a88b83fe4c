package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoacl/pkg/acl"
	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/directory"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend/memory"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/marmos91/dittoacl/pkg/filesystem/guard"
	"github.com/marmos91/dittoacl/pkg/filesystem/propagate"
)

type fakeHelper struct {
	requests []propagate.Request
	err      error
}

func (f *fakeHelper) Propagate(_ context.Context, req propagate.Request) error {
	f.requests = append(f.requests, req)
	return f.err
}

type step struct {
	Percent     int
	Description string
}

type recorder struct {
	steps []step
}

func (r *recorder) SetProgress(percent int, description string) {
	r.steps = append(r.steps, step{percent, description})
}

type fixture struct {
	svc     *Service
	backend *memory.Backend
	helper  *fakeHelper
	root    string
	share   string
	pool    string
}

// newFixture builds <tmp>/mnt/tank/share on disk and registers both
// directories with an in-memory backend.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	root := filepath.Join(base, "mnt")
	pool := filepath.Join(root, "tank")
	share := filepath.Join(pool, "share")
	require.NoError(t, os.MkdirAll(share, 0o755))

	be := memory.New()
	be.Add(pool, memory.Object{UID: 0, GID: 0, Mode: 0o755, IsDir: true})
	be.Add(share, memory.Object{UID: 1000, GID: 1000, Mode: 0o770, IsDir: true})

	helper := &fakeHelper{}
	svc := New(Deps{
		Guard:     guard.New(root, directory.StaticPoolsFromPaths([]string{pool})),
		Backend:   be,
		Helper:    helper,
		Templates: defaults.NewBuilder(directory.StaticDomain(""), nil, ""),
		Metrics:   NewMetrics(prometheus.NewRegistry()),
	})
	return &fixture{svc: svc, backend: be, helper: helper, root: root, share: share, pool: pool}
}

func openEntries(t *testing.T) []acl.ACE {
	t.Helper()
	tmpl, ok := defaults.Lookup(defaults.Open)
	require.True(t, ok)
	return tmpl.Entries
}

func TestGetACL_Trivial(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GetACL(context.Background(), f.share, false)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.UID)
	assert.Equal(t, 1000, got.GID)
	assert.Equal(t, acl.ACLTypeNFS4, got.Type)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, acl.TagOwner, got.Entries[0].Tag)
	assert.True(t, got.Entries[0].Perms.Bits[acl.PermWriteACL])
}

func TestGetACL_HidesZeroEveryone(t *testing.T) {
	f := newFixture(t)
	f.backend.Add(f.share, memory.Object{UID: 1, GID: 2, IsDir: true, ACL: []acl.RawEntry{
		{Tag: acl.TagOwner, ID: -1, Type: acl.TypeAllow, Mask: 0x1F01FF, Flags: acl.ACE4_FILE_INHERIT_ACE | acl.ACE4_DIRECTORY_INHERIT_ACE},
		{Tag: acl.TagEveryone, ID: -1, Type: acl.TypeDeny, Mask: 0, Flags: 0},
		{Tag: acl.TagEveryone, ID: -1, Type: acl.TypeAllow, Mask: 0, Flags: acl.ACE4_FILE_INHERIT_ACE | acl.ACE4_DIRECTORY_INHERIT_ACE},
	}})

	for _, simplified := range []bool{false, true} {
		got, err := f.svc.GetACL(context.Background(), f.share, simplified)
		require.NoError(t, err)
		require.Len(t, got.Entries, 1, "simplified=%v", simplified)
		assert.Equal(t, acl.TagOwner, got.Entries[0].Tag)
		if simplified {
			assert.Equal(t, acl.BasicPerms(acl.PermFullControl), got.Entries[0].Perms)
		} else {
			assert.False(t, got.Entries[0].Perms.IsBasic())
		}
	}
}

func TestGetACL_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetACL(context.Background(), filepath.Join(f.share, "missing"), false)
	assert.Equal(t, fserrors.ErrNotFound, fserrors.CodeOf(err))
}

func TestSetACL_AppendsHiddenLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	progress := &recorder{}

	req := NewSetACLRequest(f.share)
	req.Entries = openEntries(t)
	require.NoError(t, f.svc.SetACL(ctx, req, progress))

	obj, ok := f.backend.Get(f.share)
	require.True(t, ok)
	require.Len(t, obj.ACL, 4)
	last := obj.ACL[3]
	assert.Equal(t, acl.TagEveryone, last.Tag)
	assert.Equal(t, uint32(0), last.Mask)
	assert.Equal(t, uint32(acl.ACE4_FILE_INHERIT_ACE|acl.ACE4_DIRECTORY_INHERIT_ACE), last.Flags)

	got, err := f.svc.GetACL(ctx, f.share, true)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, acl.BasicPerms(acl.PermFullControl), got.Entries[0].Perms)
	assert.Equal(t, acl.BasicFlags(acl.FlagInherit), got.Entries[0].Flags)
	assert.Equal(t, acl.BasicPerms(acl.PermModify), got.Entries[2].Perms)

	assert.Equal(t, []step{
		{0, "Preparing to set acl."},
		{100, "Finished setting ACL."},
	}, progress.steps)
	assert.Empty(t, f.helper.requests)
}

func TestSetACL_SuppliedLockNotDuplicated(t *testing.T) {
	f := newFixture(t)
	lock, err := f.svc.Codec().LockingEntry()
	require.NoError(t, err)

	req := NewSetACLRequest(f.share)
	req.Entries = append(openEntries(t), lock)
	require.NoError(t, f.svc.SetACL(context.Background(), req, nil))

	obj, _ := f.backend.Get(f.share)
	assert.Len(t, obj.ACL, 4)
}

func TestSetACL_Canonicalizes(t *testing.T) {
	f := newFixture(t)

	req := NewSetACLRequest(f.share)
	req.Entries = []acl.ACE{
		{Tag: acl.TagOwner, Type: acl.TypeAllow, Perms: acl.BasicPerms(acl.PermFullControl), Flags: acl.BasicFlags(acl.FlagInherit)},
		{Tag: acl.TagUser, ID: acl.IntID(1001), Type: acl.TypeDeny, Perms: acl.BasicPerms(acl.PermModify), Flags: acl.BasicFlags(acl.FlagNoInherit)},
	}
	require.NoError(t, f.svc.SetACL(context.Background(), req, nil))

	obj, _ := f.backend.Get(f.share)
	require.Len(t, obj.ACL, 3)
	assert.Equal(t, acl.TagUser, obj.ACL[0].Tag)
	assert.Equal(t, acl.TypeDeny, obj.ACL[0].Type)
	assert.Equal(t, acl.TagOwner, obj.ACL[1].Tag)

	req.Options.Canonicalize = false
	require.NoError(t, f.svc.SetACL(context.Background(), req, nil))
	obj, _ = f.backend.Get(f.share)
	assert.Equal(t, acl.TagOwner, obj.ACL[0].Tag)
}

func TestSetACL_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	noInherit := []acl.ACE{{
		Tag: acl.TagOwner, Type: acl.TypeAllow,
		Perms: acl.BasicPerms(acl.PermFullControl), Flags: acl.BasicFlags(acl.FlagNoInherit),
	}}
	inheritOnly := []acl.ACE{{
		Tag: acl.TagOwner, Type: acl.TypeAllow,
		Perms: acl.BasicPerms(acl.PermFullControl),
		Flags: acl.AdvancedFlags(acl.FlagBits{acl.FlagInheritOnly: true}),
	}}

	noPerms := append(append([]acl.ACE(nil), openEntries(t)...), acl.ACE{
		Tag: acl.TagUser, ID: acl.IntID(1001), Type: acl.TypeAllow,
		Perms: acl.BasicPerms(acl.PermNone), Flags: acl.BasicFlags(acl.FlagInherit),
	})

	tests := []struct {
		name    string
		path    string
		entries []acl.ACE
		strip   bool
		code    fserrors.ErrorCode
	}{
		{"strip with entries", f.share, openEntries(t), true, fserrors.ErrInvalidArgument},
		{"caller NOPERMS level", f.share, noPerms, false, fserrors.ErrInvalidArgument},
		{"no inheritable entry", f.share, noInherit, false, fserrors.ErrInvalidArgument},
		{"inherit only without scope", f.share, inheritOnly, false, fserrors.ErrInvalidArgument},
		{"pool root", f.pool, openEntries(t), false, fserrors.ErrPermissionDenied},
		{"namespace root", f.root, openEntries(t), false, fserrors.ErrPermissionDenied},
		{"missing", filepath.Join(f.share, "nope"), openEntries(t), false, fserrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := f.backend.Get(f.share)

			req := NewSetACLRequest(tt.path)
			req.Entries = tt.entries
			req.Options.StripACL = tt.strip
			err := f.svc.SetACL(ctx, req, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, fserrors.CodeOf(err))

			after, _ := f.backend.Get(f.share)
			assert.Equal(t, before, after)
		})
	}
}

func TestSetACL_StripAndChown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := NewSetACLRequest(f.share)
	req.Entries = openEntries(t)
	require.NoError(t, f.svc.SetACL(ctx, req, nil))

	strip := NewSetACLRequest(f.share)
	strip.Options.StripACL = true
	strip.UID = acl.IntID(2000)
	require.NoError(t, f.svc.SetACL(ctx, strip, nil))

	obj, _ := f.backend.Get(f.share)
	assert.Nil(t, obj.ACL)
	assert.Equal(t, 2000, obj.UID)
	assert.Equal(t, 1000, obj.GID)

	trivial, err := f.svc.ACLIsTrivial(ctx, f.share)
	require.NoError(t, err)
	assert.True(t, trivial)
}

func TestSetACL_Recursive(t *testing.T) {
	f := newFixture(t)
	progress := &recorder{}

	req := NewSetACLRequest(f.share)
	req.Entries = openEntries(t)
	req.UID = acl.IntID(1001)
	req.Options.Recursive = true
	req.Options.Traverse = true
	require.NoError(t, f.svc.SetACL(context.Background(), req, progress))

	require.Len(t, f.helper.requests, 1)
	assert.Equal(t, propagate.Request{
		Path: f.share, Action: propagate.ActionClone, UID: 1001, GID: -1, Traverse: true,
	}, f.helper.requests[0])
	assert.Equal(t, []step{
		{0, "Preparing to set acl."},
		{10, "Recursively setting ACL on " + f.share + "."},
		{100, "Finished setting ACL."},
	}, progress.steps)
}

func TestSetACL_HelperFailure(t *testing.T) {
	f := newFixture(t)
	f.helper.err = fserrors.NewExternalToolError(f.share, "helper clone failed", "winacl: boom", errors.New("exit status 1"))
	progress := &recorder{}

	req := NewSetACLRequest(f.share)
	req.Entries = openEntries(t)
	req.Options.Recursive = true
	err := f.svc.SetACL(context.Background(), req, progress)

	assert.Equal(t, fserrors.ErrExternalTool, fserrors.CodeOf(err))
	require.Len(t, progress.steps, 2)
	assert.Equal(t, 10, progress.steps[1].Percent)
}

func TestSetPerm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	progress := &recorder{}

	mode := "0750"
	req := SetPermRequest{Path: f.share, Mode: &mode}
	req.GID = acl.IntID(3000)
	require.NoError(t, f.svc.SetPerm(ctx, req, progress))

	obj, _ := f.backend.Get(f.share)
	assert.Equal(t, uint32(0o750), obj.Mode)
	assert.Equal(t, 1000, obj.UID)
	assert.Equal(t, 3000, obj.GID)
	assert.Equal(t, []step{
		{0, "Preparing to set permissions."},
		{100, "Finished setting permissions."},
	}, progress.steps)
}

func TestSetPerm_NonTrivialRequiresStrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := NewSetACLRequest(f.share)
	req.Entries = openEntries(t)
	require.NoError(t, f.svc.SetACL(ctx, req, nil))
	before, _ := f.backend.Get(f.share)

	mode := "755"
	err := f.svc.SetPerm(ctx, SetPermRequest{Path: f.share, Mode: &mode}, nil)
	assert.Equal(t, fserrors.ErrInvalidArgument, fserrors.CodeOf(err))
	after, _ := f.backend.Get(f.share)
	assert.Equal(t, before, after)

	perm := SetPermRequest{Path: f.share, Mode: &mode}
	perm.Options.StripACL = true
	require.NoError(t, f.svc.SetPerm(ctx, perm, nil))
	after, _ = f.backend.Get(f.share)
	assert.Nil(t, after.ACL)
	assert.Equal(t, uint32(0o755), after.Mode)
}

func TestSetPerm_RecursiveAction(t *testing.T) {
	zero := "000"
	tests := []struct {
		name   string
		mode   *string
		action propagate.Action
	}{
		{"with mode", &zero, propagate.ActionClone},
		{"without mode", nil, propagate.ActionStrip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := SetPermRequest{Path: f.share, Mode: tt.mode}
			req.Options.Recursive = true
			require.NoError(t, f.svc.SetPerm(context.Background(), req, nil))

			require.Len(t, f.helper.requests, 1)
			assert.Equal(t, tt.action, f.helper.requests[0].Action)
		})
	}
}

func TestSetPerm_BadMode(t *testing.T) {
	f := newFixture(t)
	mode := "rwx"
	err := f.svc.SetPerm(context.Background(), SetPermRequest{Path: f.share, Mode: &mode}, nil)
	assert.Equal(t, fserrors.ErrInvalidArgument, fserrors.CodeOf(err))
}

func TestChown(t *testing.T) {
	f := newFixture(t)
	progress := &recorder{}

	req := ChownRequest{Path: f.share}
	req.UID = acl.IntID(0)
	require.NoError(t, f.svc.Chown(context.Background(), req, progress))

	obj, _ := f.backend.Get(f.share)
	assert.Equal(t, 0, obj.UID)
	assert.Equal(t, 1000, obj.GID)
	assert.Equal(t, []step{
		{0, "Preparing to change owner."},
		{100, "Finished changing owner."},
	}, progress.steps)
}

func TestChown_Recursive(t *testing.T) {
	f := newFixture(t)
	progress := &recorder{}

	req := ChownRequest{Path: f.share}
	req.GID = acl.IntID(5)
	req.Options.Recursive = true
	require.NoError(t, f.svc.Chown(context.Background(), req, progress))

	require.Len(t, f.helper.requests, 1)
	assert.Equal(t, propagate.Request{Path: f.share, Action: propagate.ActionChown, UID: -1, GID: 5}, f.helper.requests[0])
	assert.Equal(t, "Recursively changing owner of "+f.share+".", progress.steps[1].Description)
}

func TestSetPermAndChown_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := filepath.Join(f.share, "nope")
	mode := "700"

	setPerm := func(path string) error {
		req := SetPermRequest{Path: path, Mode: &mode}
		req.UID = acl.IntID(0)
		return f.svc.SetPerm(ctx, req, nil)
	}
	chown := func(path string) error {
		req := ChownRequest{Path: path}
		req.UID = acl.IntID(0)
		return f.svc.Chown(ctx, req, nil)
	}

	tests := []struct {
		name string
		run  func(string) error
		path string
		code fserrors.ErrorCode
	}{
		{"setperm pool root", setPerm, f.pool, fserrors.ErrPermissionDenied},
		{"setperm missing", setPerm, missing, fserrors.ErrNotFound},
		{"chown pool root", chown, f.pool, fserrors.ErrPermissionDenied},
		{"chown missing", chown, missing, fserrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poolBefore, _ := f.backend.Get(f.pool)
			shareBefore, _ := f.backend.Get(f.share)

			err := tt.run(tt.path)
			require.Error(t, err)
			assert.Equal(t, tt.code, fserrors.CodeOf(err))

			poolAfter, _ := f.backend.Get(f.pool)
			shareAfter, _ := f.backend.Get(f.share)
			assert.Equal(t, poolBefore, poolAfter)
			assert.Equal(t, shareBefore, shareAfter)
			assert.Empty(t, f.helper.requests)
		})
	}
}

func TestDefaultACL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, []string{"OPEN", "RESTRICTED", "HOME"}, f.svc.DefaultACLChoices())

	entries, err := f.svc.DefaultACL(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, openEntries(t), entries)

	_, err = f.svc.DefaultACL(ctx, "BOGUS", "")
	assert.Equal(t, fserrors.ErrInvalidArgument, fserrors.CodeOf(err))

	_, err = f.svc.DefaultACL(ctx, "OPEN", "FTP")
	assert.Equal(t, fserrors.ErrInvalidArgument, fserrors.CodeOf(err))
}

func TestDefaultACL_DomainHome(t *testing.T) {
	f := newFixture(t)
	f.svc.templates = defaults.NewBuilder(directory.StaticDomain("HEALTHY"), nil, "")

	got, err := f.svc.DefaultACL(context.Background(), "HOME", "NFS")
	require.NoError(t, err)
	tmpl, _ := defaults.Lookup(defaults.DomainHome)
	assert.Equal(t, tmpl.Entries, got)
}

func TestNoHelper(t *testing.T) {
	f := newFixture(t)
	f.svc.helper = nil

	req := ChownRequest{Path: f.share}
	req.Options.Recursive = true
	err := f.svc.Chown(context.Background(), req, nil)
	assert.Equal(t, fserrors.ErrNotSupported, fserrors.CodeOf(err))
}
