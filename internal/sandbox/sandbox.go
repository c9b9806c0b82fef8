package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath checks if relPath, joined to root, stays within root.
// It resolves symlinks, normalizes paths, and verifies containment.
// Returns the resolved absolute path or an error.
func ValidatePath(root, relPath string) (string, error) {
	realRoot, err := realDir(root)
	if err != nil {
		return "", err
	}
	return contain(realRoot, filepath.Join(realRoot, relPath), relPath)
}

// Contains checks that path (absolute, or relative to the working directory)
// resolves to a location within root, and returns the resolved path.
func Contains(root, path string) (string, error) {
	realRoot, err := realDir(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path %s: %w", path, err)
	}
	return contain(realRoot, abs, path)
}

func realDir(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving root symlinks: %w", err)
	}
	return realRoot, nil
}

func contain(realRoot, candidate, display string) (string, error) {
	candidate = filepath.Clean(candidate)

	// The path may not exist yet, so resolve as much as we can.
	resolved, err := resolveExistingPath(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	// Trailing separator avoids "root2" matching "root".
	rootPrefix := realRoot + string(filepath.Separator)
	if resolved != realRoot && !strings.HasPrefix(resolved, rootPrefix) {
		return "", fmt.Errorf("path '%s' resolves to '%s' which is outside the dependency root '%s'", display, resolved, realRoot)
	}

	return resolved, nil
}

// resolveExistingPath resolves symlinks for the longest existing prefix of the path,
// then appends the non-existing suffix. This handles paths that don't fully exist yet.
func resolveExistingPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	if dir == path {
		return path, nil
	}

	resolvedDir, err := resolveExistingPath(dir)
	if err != nil {
		return "", err
	}

	return filepath.Join(resolvedDir, base), nil
}

// SafeRemoveAll recursively removes a directory strictly inside root.
// The root itself is never removed.
func SafeRemoveAll(root, path string) error {
	resolved, err := Contains(root, path)
	if err != nil {
		return err
	}
	realRoot, err := realDir(root)
	if err != nil {
		return err
	}
	if resolved == realRoot {
		return fmt.Errorf("refusing to remove the dependency root '%s'", realRoot)
	}
	return os.RemoveAll(resolved)
}

// SafeRename renames from to to, both inside root.
func SafeRename(root, from, to string) error {
	src, err := Contains(root, from)
	if err != nil {
		return err
	}
	dst, err := Contains(root, to)
	if err != nil {
		return err
	}
	return os.Rename(src, dst)
}
