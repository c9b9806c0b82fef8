package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bianoble/ldh/internal/engine"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/manifest"
	"github.com/bianoble/ldh/internal/settings"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

// loadManifest reads and validates the manifest.
func loadManifest() (*manifest.Manifest, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", manifestPath, err)
	}
	return m, nil
}

// loadLockfile reads the lockfile if it exists. Returns an empty document if missing.
func loadLockfile() (*lock.Document, error) {
	doc, err := lock.Load(lockfilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return &lock.Document{Version: lock.CurrentVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading lockfile %s: %w", lockfilePath, err)
	}
	return doc, nil
}

// saveLockfile writes the lockfile atomically.
func saveLockfile(doc *lock.Document) error {
	return lock.Save(lockfilePath, doc)
}

// projectRoot returns the directory containing the manifest with symlinks resolved.
func projectRoot() (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", fmt.Errorf("resolving manifest path: %w", err)
	}
	dir := filepath.Dir(abs)
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	return dir, nil
}

// loadSettings resolves .env, the settings hierarchy and the environment for
// the project, then applies --root.
func loadSettings(root string) (*settings.HierarchicalResult, error) {
	hr, err := settings.Resolve(root)
	if err != nil {
		return hr, err
	}
	if dependencyRoot != "" {
		hr.Settings.DependencyRoot = dependencyRoot
	}
	return hr, nil
}

// newStore creates or opens the dependency root.
func newStore(s *settings.Settings, root string) (*store.Store, error) {
	st, err := store.New(s.RootDir(root))
	if err != nil {
		return nil, fmt.Errorf("initializing dependency root: %w", err)
	}
	return st, nil
}

// newRegistry creates a source registry with the built-in providers.
func newRegistry(s *settings.Settings) *source.Registry {
	return source.DefaultRegistry(s.GitBinary)
}

// workspace bundles what every resolving command needs.
type workspace struct {
	root     string
	settings *settings.Settings
	store    *store.Store
	registry *source.Registry
}

func openWorkspace() (*workspace, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	hr, err := loadSettings(root)
	if err != nil {
		return nil, err
	}
	st, err := newStore(hr.Settings, root)
	if err != nil {
		return nil, err
	}
	return &workspace{
		root:     root,
		settings: hr.Settings,
		store:    st,
		registry: newRegistry(hr.Settings),
	}, nil
}

func (w *workspace) resolver() *engine.Resolver {
	return &engine.Resolver{
		Registry:    w.registry,
		Store:       w.store,
		RangePolicy: w.settings.RangePolicy,
	}
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}

func humanSize(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[i])
}
