package sandbox

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinRoot(t *testing.T) {
	root := t.TempDir()

	resolved, err := ValidatePath(root, "dep-1.0.0/src")
	require.NoError(t, err)

	realRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, filepath.Join(realRoot, "dep-1.0.0/src"), resolved)
}

func TestValidatePathRejectsDotDot(t *testing.T) {
	root := t.TempDir()

	_, err := ValidatePath(root, "../escape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the dependency root")

	_, err = ValidatePath(root, "dep/../../escape")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the dependency root")
}

func TestValidatePathRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape-link")))

	_, err := ValidatePath(root, "escape-link/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the dependency root")
}

func TestValidatePathAllowsInternalSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test not reliable on Windows")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	_, err := ValidatePath(root, "link/file")
	assert.NoError(t, err)
}

func TestContainsAbsolute(t *testing.T) {
	root := t.TempDir()
	dep := filepath.Join(root, "a-1.0.0")
	require.NoError(t, os.MkdirAll(dep, 0755))

	_, err := Contains(root, dep)
	assert.NoError(t, err)

	_, err = Contains(root, t.TempDir())
	assert.Error(t, err)
}

func TestSafeRemoveAll(t *testing.T) {
	root := t.TempDir()
	dep := filepath.Join(root, "a-1.0.0")
	require.NoError(t, os.MkdirAll(filepath.Join(dep, "nested", "deeper"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dep, "nested", "f.txt"), []byte("x"), 0644))

	require.NoError(t, SafeRemoveAll(root, dep))
	_, err := os.Stat(dep)
	assert.True(t, os.IsNotExist(err))
}

func TestSafeRemoveAllRejectsEscapeAndRoot(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	assert.Error(t, SafeRemoveAll(root, outside))
	_, err := os.Stat(outside)
	assert.NoError(t, err, "outside dir must survive")

	err = SafeRemoveAll(root, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to remove")
}

func TestSafeRename(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "a-temp")
	to := filepath.Join(root, "a-v1.0.0")
	require.NoError(t, os.MkdirAll(from, 0755))

	require.NoError(t, SafeRename(root, from, to))
	_, err := os.Stat(to)
	assert.NoError(t, err)

	assert.Error(t, SafeRename(root, to, filepath.Join(t.TempDir(), "x")))
}
