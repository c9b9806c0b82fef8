// Package ldh provides the public Go library API for ldh.
//
// ldh resolves git-hosted dependencies declared in a manifest into a local
// dependency root and records the exact result in a lock document, so that
// later runs are reproducible and never re-fetch what is already on disk.
//
// # Basic Usage
//
//	client, err := ldh.New(ldh.Options{
//	    ProjectRoot:  "/path/to/project",
//	    ManifestPath: "ldh.toml",
//	    LockfilePath: "ldh.lock",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Resolve every dependency and rewrite the lock
//	result, err := client.Update(ctx, ldh.UpdateOptions{})
//
//	// Compare checkouts against the lock
//	checkResult, err := client.Check(ctx)
package ldh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/engine"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/manifest"
	"github.com/bianoble/ldh/internal/settings"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	Names   []string // empty = update all
	DryRun  bool
	NoPrune bool // keep directories of dependencies no longer declared
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun  bool
	Orphans bool
}

// Updater resolves dependencies and rewrites the lock document.
type Updater interface {
	Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error)
}

// Checker compares local checkouts against the lock document.
type Checker interface {
	Check(ctx context.Context) (*CheckResult, error)
}

// Pruner removes dependencies no longer declared in the manifest.
type Pruner interface {
	Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error)
}

// Options configures an ldh client.
type Options struct {
	// ProjectRoot is the directory containing ldh.toml.
	// If empty, defaults to the directory containing ManifestPath.
	ProjectRoot string

	// ManifestPath is the path to the manifest. Default: "ldh.toml".
	ManifestPath string

	// LockfilePath is the path to the lock document. Default: "ldh.lock".
	LockfilePath string

	// DependencyRoot overrides the dependency_root setting.
	DependencyRoot string

	// SystemSettingsPath overrides the system-level settings file path.
	SystemSettingsPath string

	// UserSettingsPath overrides the user-level settings file path.
	UserSettingsPath string

	// NoInherit skips system and user settings.
	NoInherit bool

	// Provider replaces the git provider, for embedding with another
	// version-control backend.
	Provider Provider
}

// Client is the main entry point for the ldh library.
// It implements Updater, Checker and Pruner.
type Client struct {
	registry     *source.Registry
	store        *store.Store
	settings     settings.Settings
	projectRoot  string
	manifestPath string
	lockfilePath string
}

// New creates a new ldh Client. The dependency root is created if missing.
func New(opts Options) (*Client, error) {
	if opts.ManifestPath == "" {
		opts.ManifestPath = manifest.DefaultFileName
	}
	if opts.LockfilePath == "" {
		opts.LockfilePath = DefaultLockFileName
	}

	root := opts.ProjectRoot
	if root == "" {
		abs, err := filepath.Abs(opts.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("resolving manifest path: %w", err)
		}
		root = filepath.Dir(abs)
	}
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}

	hr, err := settings.LoadHierarchical(settings.DiscoverOptions{
		ProjectDir: root,
		SystemPath: opts.SystemSettingsPath,
		UserPath:   opts.UserSettingsPath,
		NoInherit:  opts.NoInherit,
	})
	if err != nil {
		return nil, err
	}
	s := *hr.Settings
	if opts.DependencyRoot != "" {
		s.DependencyRoot = opts.DependencyRoot
	}
	if errs := settings.Validate(&s); len(errs) > 0 {
		return nil, &settings.ValidationError{Errors: errs}
	}

	st, err := store.New(s.RootDir(root))
	if err != nil {
		return nil, fmt.Errorf("initializing dependency root: %w", err)
	}

	reg := source.DefaultRegistry(s.GitBinary)
	if opts.Provider != nil {
		reg.Register(dependency.SourceGit, opts.Provider)
	}

	return &Client{
		registry:     reg,
		store:        st,
		settings:     s,
		projectRoot:  root,
		manifestPath: opts.ManifestPath,
		lockfilePath: opts.LockfilePath,
	}, nil
}

// DefaultLockFileName is the lock document used when none is given.
const DefaultLockFileName = "ldh.lock"

// Settings returns the effective settings.
func (c *Client) Settings() settings.Settings {
	return c.settings
}

// DependencyRoot returns the absolute dependency root.
func (c *Client) DependencyRoot() string {
	return c.store.Root()
}

func (c *Client) loadManifest() (*manifest.Manifest, error) {
	return manifest.Load(c.manifestPath)
}

// loadLockfile returns an empty document when no lock exists yet.
func (c *Client) loadLockfile() (*lock.Document, error) {
	doc, err := lock.Load(c.lockfilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return &lock.Document{Version: lock.CurrentVersion}, nil
	}
	return doc, err
}

func (c *Client) resolver() *engine.Resolver {
	return &engine.Resolver{Registry: c.registry, Store: c.store, RangePolicy: c.settings.RangePolicy}
}

// Update resolves dependencies and saves the lock document. Per-dependency
// failures are reported in the result; the lock still records everything
// that succeeded.
func (c *Client) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	m, err := c.loadManifest()
	if err != nil {
		return nil, err
	}
	doc, err := c.loadLockfile()
	if err != nil {
		return nil, err
	}

	eng := &engine.UpdateEngine{Resolver: c.resolver(), ProjectRoot: c.projectRoot}
	result, err := eng.Update(ctx, m, doc, engine.UpdateOptions{
		Names:  opts.Names,
		DryRun: opts.DryRun,
		Prune:  !opts.NoPrune,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun && result.Lock != nil {
		if err := lock.Save(c.lockfilePath, result.Lock); err != nil {
			return nil, fmt.Errorf("saving lockfile: %w", err)
		}
	}
	return result, nil
}

// Prune removes dependencies no longer declared and saves the lock document.
func (c *Client) Prune(ctx context.Context, opts PruneOptions) (*PruneResult, error) {
	m, err := c.loadManifest()
	if err != nil {
		return nil, err
	}
	doc, err := c.loadLockfile()
	if err != nil {
		return nil, err
	}

	eng := &engine.PruneEngine{Store: c.store, ProjectRoot: c.projectRoot}
	result, err := eng.Prune(ctx, m, doc, engine.PruneOptions{DryRun: opts.DryRun, Orphans: opts.Orphans})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun && result.Lock != nil {
		if err := lock.Save(c.lockfilePath, result.Lock); err != nil {
			return nil, fmt.Errorf("saving lockfile: %w", err)
		}
	}
	return result, nil
}

// Status reports the state of all (or named) dependencies.
func (c *Client) Status(_ context.Context, names []string) ([]DependencyStatus, error) {
	m, err := c.loadManifest()
	if err != nil {
		return nil, err
	}
	doc, err := c.loadLockfile()
	if err != nil {
		return nil, err
	}
	return engine.Status(m, doc, c.projectRoot, names), nil
}

// Check compares every locked checkout with its recorded version.
func (c *Client) Check(ctx context.Context) (*CheckResult, error) {
	doc, err := lock.Load(c.lockfilePath)
	if err != nil {
		return nil, err
	}
	return engine.Check(ctx, c.registry, doc, c.projectRoot)
}
