package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/sandbox"
)

// ErrNotDirectory is returned when a dependency path is missing or is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Store is the on-disk dependency root. Each dependency occupies
// <root>/<name>-<ref>; the directory itself is the cache.
type Store struct {
	root string
}

// New creates a Store at root. The directory is created if it does not exist;
// concurrent creation by another process is not an error.
func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving dependency root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("creating dependency root %s: %w", abs, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the dependency root directory.
func (s *Store) Root() string {
	return s.root
}

// PathFor returns the directory for name at ref.
func (s *Store) PathFor(name, ref string) (string, error) {
	return sandbox.ValidatePath(s.root, dependency.DirName(name, ref))
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Move renames from to to. If to already exists, from is removed and
// Move returns false with no error: the existing directory wins.
func (s *Store) Move(from, to string) (bool, error) {
	if IsDir(to) {
		return false, s.RemoveAll(from)
	}

	err := sandbox.SafeRename(s.root, from, to)
	if err == nil {
		return true, nil
	}
	// Lost a race with another run renaming into the same place.
	if errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.ENOTEMPTY) {
		return false, s.RemoveAll(from)
	}
	return false, fmt.Errorf("moving %s to %s: %w", from, to, err)
}

// RemoveAll recursively deletes a dependency directory under the root.
func (s *Store) RemoveAll(path string) error {
	if !IsDir(path) {
		return fmt.Errorf("removing %s: %w", path, ErrNotDirectory)
	}
	if err := sandbox.SafeRemoveAll(s.root, path); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Rel returns path relative to base when it lies under base, and path unchanged otherwise.
func Rel(base, path string) string {
	if path == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// Abs resolves a lock-recorded path against base.
func Abs(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Size returns the total size of the dependency root in bytes.
func (s *Store) Size() (int64, error) {
	var total int64
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// Entries lists the dependency directories currently under the root.
func (s *Store) Entries() ([]string, error) {
	des, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading dependency root %s: %w", s.root, err)
	}
	var out []string
	for _, de := range des {
		if de.IsDir() {
			out = append(out, filepath.Join(s.root, de.Name()))
		}
	}
	return out, nil
}
