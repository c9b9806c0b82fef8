package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldh.lock")
	require.NoError(t, os.WriteFile(path, []byte("[[packages\nname ="), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing lockfile")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldh.lock.yml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing lockfile")
}

func TestLoadValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldh.lock")
	data := `version = 99

[[packages]]
name = "s"
path = "p"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := Load(path)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestSaveToReadOnlyDir(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("test unreliable as root")
	}
	readOnly := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.MkdirAll(readOnly, 0555))
	defer func() { _ = os.Chmod(readOnly, 0755) }()

	err := Save(filepath.Join(readOnly, "ldh.lock"), &Document{Version: 1})
	assert.Error(t, err)
}

func TestSaveToMissingDir(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "subdir", "ldh.lock"), &Document{Version: 1})
	assert.Error(t, err)
}

func TestValidationErrorContainsAllErrors(t *testing.T) {
	verr := &ValidationError{Errors: []string{"a", "b", "c"}}
	msg := verr.Error()
	assert.Contains(t, msg, "lockfile validation failed")
	for _, e := range []string{"a", "b", "c"} {
		assert.Contains(t, msg, e)
	}
}
