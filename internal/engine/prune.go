package engine

import (
	"context"
	"path/filepath"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/manifest"
	"github.com/bianoble/ldh/internal/store"
)

// PruneEngine removes dependencies that are no longer declared.
type PruneEngine struct {
	Store       *store.Store
	ProjectRoot string
}

// PruneOptions configures a prune operation.
type PruneOptions struct {
	DryRun bool
	// Orphans also removes directories under the dependency root that no
	// lock entry refers to.
	Orphans bool
}

// Prune runs the deletion path for removed lock entries and rewrites the
// lock without them. Entries whose directory could not be removed stay.
func (e *PruneEngine) Prune(ctx context.Context, m *manifest.Manifest, current *lock.Document, opts PruneOptions) (*PruneResult, error) {
	logger := slogcontext.FromCtx(ctx)
	result := &PruneResult{}

	var declared dependency.Set
	if m != nil {
		declared = m.Dependencies
	}
	rec := absolutize(Reconcile(declared, current), e.ProjectRoot)

	inUse := pathsInUse(rec.Manifest())
	for _, d := range rec.Added {
		if path, err := e.Store.PathFor(d.Name, d.Input.Selector.DirRef()); err == nil {
			inUse[filepath.Clean(path)] = true
		}
	}

	var retained dependency.Set
	for _, dep := range rec.Removed {
		if inUse[filepath.Clean(dep.Locked.LocalPath)] {
			logger.DebugContext(ctx, "lock entry points at a declared dependency, dropping it", "dependency", dep.Name, "path", dep.Locked.LocalPath)
			continue
		}
		if opts.DryRun {
			result.Removed = append(result.Removed, actionFor(dep, "removed"))
			continue
		}
		if err := Delete(ctx, e.Store, dep); err != nil {
			result.Failed = append(result.Failed, asDependencyError(dep.Name, "delete", err))
			retained = append(retained, dep)
			continue
		}
		result.Removed = append(result.Removed, actionFor(dep, "removed"))
	}

	if opts.Orphans {
		orphans, err := e.orphans(current)
		if err != nil {
			return nil, err
		}
		for _, path := range orphans {
			a := Action{Name: filepath.Base(path), Path: path, Action: "removed"}
			if !opts.DryRun {
				if err := e.Store.RemoveAll(path); err != nil {
					result.Failed = append(result.Failed, DependencyError{Dependency: a.Name, Operation: "delete", Err: err})
					continue
				}
				logger.InfoContext(ctx, "removed orphaned directory", "path", path)
			}
			result.Removed = append(result.Removed, a)
		}
	}

	if opts.DryRun {
		return result, nil
	}

	result.Lock = buildLock(e.ProjectRoot, rec.Manifest(), retained)
	return result, nil
}

// orphans lists store directories that no lock entry points at.
func (e *PruneEngine) orphans(current *lock.Document) ([]string, error) {
	entries, err := e.Store.Entries()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool)
	if current != nil {
		for _, p := range current.Packages {
			known[filepath.Clean(store.Abs(e.ProjectRoot, p.Path))] = true
		}
	}
	var out []string
	for _, dir := range entries {
		if !known[filepath.Clean(dir)] {
			out = append(out, dir)
		}
	}
	return out, nil
}
