package propagate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	fserrors "github.com/marmos91/dittoacl/pkg/filesystem/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Args(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "clone",
			req:  Request{Path: "/mnt/tank/share", Action: ActionClone, UID: -1, GID: 100},
			want: []string{"-a", "clone", "-O", "-1", "-G", "100", "-r", "-c", "/mnt/tank", "-p", "share"},
		},
		{
			name: "traverse chown",
			req:  Request{Path: "/mnt/tank/share/sub", Action: ActionChown, UID: 1000, GID: -1, Traverse: true},
			want: []string{"-a", "chown", "-O", "1000", "-G", "-1", "-rx", "-c", "/mnt/tank/share", "-p", "sub"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Args())
		})
	}
}

// writeHelper installs a shell script standing in for the helper.
func writeHelper(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helper")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecPropagator(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	ctx := context.Background()
	req := Request{Path: "/mnt/tank/share", Action: ActionStrip, UID: -1, GID: -1}

	ok := NewExecPropagator(writeHelper(t, "exit 0"), 0)
	require.NoError(t, ok.Propagate(ctx, req))

	failing := NewExecPropagator(writeHelper(t, "echo 'bad path' >&2; exit 3"), 0)
	err := failing.Propagate(ctx, req)
	require.Error(t, err)
	assert.Equal(t, fserrors.ErrExternalTool, fserrors.CodeOf(err))
	assert.Contains(t, err.Error(), "bad path")

	missing := NewExecPropagator(filepath.Join(t.TempDir(), "absent"), 0)
	err = missing.Propagate(ctx, req)
	assert.Equal(t, fserrors.ErrExternalTool, fserrors.CodeOf(err))
}
