package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sahilm/fuzzy"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/manifest"
	"github.com/bianoble/ldh/internal/store"
)

// UpdateEngine reconciles the manifest with the lock, resolves every
// dependency and produces the new lock document.
type UpdateEngine struct {
	Resolver    *Resolver
	ProjectRoot string // lock paths are recorded relative to it
}

// UpdateOptions configures an update operation.
type UpdateOptions struct {
	Names  []string // empty = all dependencies
	DryRun bool
	Prune  bool // delete directories of dependencies no longer declared
}

// Update resolves dependencies sequentially in manifest order. Per-dependency
// failures are collected in the result; the returned error is reserved for
// problems that stop the whole run.
func (e *UpdateEngine) Update(ctx context.Context, m *manifest.Manifest, current *lock.Document, opts UpdateOptions) (*UpdateResult, error) {
	if m == nil {
		return nil, fmt.Errorf("no manifest")
	}
	logger := slogcontext.FromCtx(ctx)
	result := &UpdateResult{}

	rec := Reconcile(m.Dependencies, current)
	rec = absolutize(rec, e.ProjectRoot)

	selected := make(map[string]bool, len(opts.Names))
	for _, name := range opts.Names {
		if _, ok := m.Dependencies.Find(name); !ok {
			result.Failed = append(result.Failed, DependencyError{
				Dependency: name,
				Operation:  "select",
				Err:        unknownName(name, m.Dependencies.Names()),
			})
			continue
		}
		selected[name] = true
	}
	wanted := func(name string) bool {
		return len(opts.Names) == 0 || selected[name]
	}

	if opts.DryRun {
		result.Plan = &rec
		return result, nil
	}

	deps := rec.Manifest()
	for i, dep := range deps {
		if !wanted(dep.Name) {
			result.Skipped = append(result.Skipped, actionFor(dep, "untouched"))
			continue
		}

		out, err := e.Resolver.Resolve(ctx, dep)
		deps[i] = out.Dependency
		if err != nil {
			result.Failed = append(result.Failed, asDependencyError(dep.Name, "resolve", err))
			continue
		}

		switch {
		case out.Reused:
			result.Resolved = append(result.Resolved, actionFor(out.Dependency, "reused"))
		case out.Fetched:
			result.Resolved = append(result.Resolved, actionFor(out.Dependency, "cloned"))
		default:
			result.Skipped = append(result.Skipped, actionFor(out.Dependency, "present"))
		}
	}

	inUse := pathsInUse(deps)
	var retained dependency.Set
	for _, dep := range rec.Removed {
		if inUse[filepath.Clean(dep.Locked.LocalPath)] {
			result.Skipped = append(result.Skipped, actionFor(dep, "superseded"))
			continue
		}
		if !opts.Prune || !wanted(dep.Name) {
			retained = append(retained, dep)
			continue
		}
		if err := Delete(ctx, e.Resolver.Store, dep); err != nil {
			result.Failed = append(result.Failed, asDependencyError(dep.Name, "delete", err))
			retained = append(retained, dep)
			result.Skipped = append(result.Skipped, actionFor(dep, "retained"))
			continue
		}
		result.Removed = append(result.Removed, actionFor(dep, "removed"))
	}

	result.Lock = buildLock(e.ProjectRoot, deps, retained)
	logger.DebugContext(ctx, "update finished",
		"resolved", len(result.Resolved), "skipped", len(result.Skipped),
		"removed", len(result.Removed), "failed", len(result.Failed))
	return result, nil
}

// absolutize resolves lock-relative paths so the engine only sees absolute ones.
func absolutize(rec Reconciliation, base string) Reconciliation {
	fix := func(set dependency.Set) dependency.Set {
		out := make(dependency.Set, len(set))
		for i, d := range set {
			d.Locked.LocalPath = store.Abs(base, d.Locked.LocalPath)
			out[i] = d
		}
		return out
	}
	rec.manifest = fix(rec.manifest)
	rec.Matched = fix(rec.Matched)
	rec.Added = fix(rec.Added)
	rec.Removed = fix(rec.Removed)
	return rec
}

// buildLock writes entries for every dependency with a locked side: manifest
// order first, then removed entries that are still on disk.
func buildLock(base string, deps, retained dependency.Set) *lock.Document {
	doc := &lock.Document{Version: lock.CurrentVersion}
	for _, set := range []dependency.Set{deps, retained} {
		for _, d := range set {
			if !d.Locked.HasValue() {
				continue
			}
			d.Locked.LocalPath = store.Rel(base, d.Locked.LocalPath)
			doc.Packages = append(doc.Packages, lock.FromDependency(d))
		}
	}
	return doc
}

func actionFor(d dependency.Dependency, action string) Action {
	return Action{
		Name:    d.Name,
		Path:    d.Locked.LocalPath,
		Ref:     d.Locked.ResolvedRef(),
		Version: d.Locked.ResolvedVersion,
		Action:  action,
	}
}

func asDependencyError(name, op string, err error) DependencyError {
	var de DependencyError
	if errors.As(err, &de) {
		return de
	}
	return DependencyError{Dependency: name, Operation: op, Err: err}
}

// unknownName reports a name missing from the manifest, with the closest
// declared name as a hint when one matches.
func unknownName(name string, declared []string) error {
	if matches := fuzzy.Find(name, declared); len(matches) > 0 {
		return fmt.Errorf("dependency '%s' not found in manifest (did you mean '%s'?)", name, matches[0].Str)
	}
	return fmt.Errorf("dependency '%s' not found in manifest", name)
}
