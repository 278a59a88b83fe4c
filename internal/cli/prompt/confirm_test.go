package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmRecursive_SkipsPrompt(t *testing.T) {
	ok, err := ConfirmRecursive("Set ACL", "/mnt/tank/share", false, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ConfirmRecursive("Set ACL", "/mnt/tank/share", true, true)
	require.NoError(t, err)
	assert.True(t, ok)
}
