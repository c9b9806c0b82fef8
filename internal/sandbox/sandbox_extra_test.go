package sandbox

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathRootItself(t *testing.T) {
	root := t.TempDir()
	resolved, err := ValidatePath(root, ".")
	require.NoError(t, err)

	realRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, realRoot, resolved)
}

func TestValidatePathInvalidRoot(t *testing.T) {
	_, err := ValidatePath("/nonexistent/root/path", "file")
	assert.Error(t, err)
}

func TestValidatePathPrefixSibling(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "deps")
	sibling := filepath.Join(parent, "deps2")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.MkdirAll(sibling, 0755))

	_, err := Contains(root, sibling)
	assert.Error(t, err)
}

func TestResolveExistingPathPartiallyExists(t *testing.T) {
	root := t.TempDir()
	realRoot, _ := filepath.EvalSymlinks(root)

	resolved, err := resolveExistingPath(filepath.Join(root, "a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realRoot, "a", "b", "c"), resolved)
}

func TestValidatePathWithSymlinkInMiddle(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	realRoot, _ := filepath.EvalSymlinks(root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "store", "a-1"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(root, "store"), filepath.Join(root, "current")))

	resolved, err := ValidatePath(root, "current/a-1/file")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realRoot, "store", "a-1", "file"), resolved)
}
