//go:build linux

package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeSelf(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root bypasses mode bits")
	}
	dir := t.TempDir()
	file := filepath.Join(dir, "ro")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o400))

	got := ProbeSelf(file)
	assert.True(t, got.Read)
	assert.False(t, got.Write)
	assert.False(t, got.Execute)
}
