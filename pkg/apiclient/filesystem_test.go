package apiclient

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittoacl/pkg/acl/defaults"
	"github.com/marmos91/dittoacl/pkg/api"
	"github.com/marmos91/dittoacl/pkg/directory"
	"github.com/marmos91/dittoacl/pkg/filesystem"
	"github.com/marmos91/dittoacl/pkg/filesystem/backend/memory"
	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/marmos91/dittoacl/pkg/filesystem/guard"
	"github.com/marmos91/dittoacl/pkg/job"
)

type recorder struct {
	mu    sync.Mutex
	steps []job.Step
}

func (r *recorder) SetProgress(percent int, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, job.Step{Percent: percent, Description: description})
}

func newTestServer(t *testing.T) (*Client, *memory.Backend, string, string) {
	t.Helper()
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	root := filepath.Join(base, "mnt")
	pool := filepath.Join(root, "tank")
	share := filepath.Join(pool, "share")
	require.NoError(t, os.MkdirAll(share, 0o755))

	be := memory.New()
	be.Add(pool, memory.Object{Mode: 0o755, IsDir: true})
	be.Add(share, memory.Object{UID: 1000, GID: 1000, Mode: 0o770, IsDir: true})

	pools := directory.StaticPoolsFromPaths([]string{pool})
	svc := filesystem.New(filesystem.Deps{
		Guard:     guard.New(root, pools),
		Backend:   be,
		Templates: defaults.NewBuilder(directory.StaticDomain(""), nil, ""),
	})
	handler := api.NewRouter(api.Deps{
		Service: svc,
		Runner:  job.NewRunner(job.NewMemoryStore(), job.NewLocks(""), 0),
		Pools:   pools,
		Domain:  directory.StaticDomain(""),
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL), be, share, pool
}

func TestClient_GetACL(t *testing.T) {
	client, _, share, _ := newTestServer(t)

	got, err := client.GetACL(context.Background(), share, true)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.UID)
	assert.Len(t, got.Entries, 3)

	_, err = client.GetACL(context.Background(), filepath.Join(share, "missing"), false)
	assert.True(t, fserrors.IsCode(err, fserrors.ErrNotFound))
}

func TestClient_SetACLWait(t *testing.T) {
	client, be, share, _ := newTestServer(t)
	ctx := context.Background()

	entries, err := client.DefaultACL(ctx, "OPEN", "")
	require.NoError(t, err)

	req := filesystem.NewSetACLRequest(share)
	req.Entries = entries
	j, err := client.SetACL(ctx, req, true)
	require.NoError(t, err)
	assert.Equal(t, job.StateSuccess, j.State)

	obj, ok := be.Get(share)
	require.True(t, ok)
	assert.NotEmpty(t, obj.ACL)

	trivial, err := client.ACLIsTrivial(ctx, share)
	require.NoError(t, err)
	assert.False(t, trivial)
}

func TestClient_SubmitAndWait(t *testing.T) {
	client, _, share, _ := newTestServer(t)
	ctx := context.Background()

	uid := 0
	j, err := client.Chown(ctx, filesystem.ChownRequest{Path: share, Ownership: filesystem.Ownership{UID: &uid}}, false)
	require.NoError(t, err)
	require.NotEmpty(t, j.ID)

	rec := &recorder{}
	final, err := client.WaitJob(ctx, j.ID, 10*time.Millisecond, rec)
	require.NoError(t, err)
	assert.Equal(t, job.StateSuccess, final.State)
	require.NotEmpty(t, rec.steps)
	assert.Equal(t, 100, rec.steps[len(rec.steps)-1].Percent)

	jobs, err := client.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestClient_SubmitFailure(t *testing.T) {
	client, _, _, pool := newTestServer(t)
	ctx := context.Background()

	mode := "755"
	_, err := client.SetPerm(ctx, filesystem.SetPermRequest{Path: pool, Mode: &mode}, true)
	assert.True(t, fserrors.IsCode(err, fserrors.ErrPermissionDenied))

	j, err := client.SetPerm(ctx, filesystem.SetPermRequest{Path: pool, Mode: &mode}, false)
	require.NoError(t, err)
	final, err := client.WaitJob(ctx, j.ID, 10*time.Millisecond, nil)
	require.Error(t, err)
	assert.Equal(t, job.StateFailed, final.State)
	assert.True(t, fserrors.IsCode(err, fserrors.ErrPermissionDenied))
}

func TestClient_Choices(t *testing.T) {
	client, _, _, _ := newTestServer(t)

	names, err := client.DefaultACLChoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"OPEN", "RESTRICTED", "HOME"}, names)

	_, err = client.GetJob(context.Background(), "nope")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestJobError(t *testing.T) {
	assert.NoError(t, JobError(&job.Job{State: job.StateSuccess}))

	err := JobError(&job.Job{State: job.StateFailed, Error: "NotFound: path not found", ErrorCode: "NotFound"})
	assert.True(t, fserrors.IsCode(err, fserrors.ErrNotFound))
	assert.Equal(t, "NotFound: path not found", err.Error())

	err = JobError(&job.Job{State: job.StateFailed, Error: "disk on fire"})
	assert.Equal(t, 0, int(fserrors.CodeOf(err)))
}
