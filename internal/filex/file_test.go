package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSubDir_CreatesAndReturnsPath(t *testing.T) {
	tmp := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(orig) })

	dir, err := EnsureSubDir("data")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "data", filepath.Base(dir))

	// idempotent
	again, err := EnsureSubDir("data")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}
