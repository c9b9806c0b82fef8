package engine

import (
	"context"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/settings"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

// State is a step of the per-dependency resolution state machine.
type State int

const (
	StateUnchecked State = iota
	StateSkipped
	StateCloning
	StateCheckingOut
	StateRenaming
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateSkipped:
		return "skipped"
	case StateCloning:
		return "cloning"
	case StateCheckingOut:
		return "checking-out"
	case StateRenaming:
		return "renaming"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of resolving one dependency.
type Outcome struct {
	Dependency dependency.Dependency
	States     []State
	Fetched    bool // a clone was made
	Reused     bool // the range result already existed under its final name
}

// State returns the last state reached.
func (o *Outcome) State() State {
	if len(o.States) == 0 {
		return StateUnchecked
	}
	return o.States[len(o.States)-1]
}

func (o *Outcome) enter(s State) {
	o.States = append(o.States, s)
}

// Resolver turns dependencies into resolved checkouts under a Store.
type Resolver struct {
	Registry    *source.Registry
	Store       *store.Store
	RangePolicy string // settings.RangeFirst (default) or settings.RangeHighest
}

// Resolve runs the state machine for dep. On failure the returned outcome
// carries an empty locked side and the error is a DependencyError.
func (r *Resolver) Resolve(ctx context.Context, dep dependency.Dependency) (*Outcome, error) {
	logger := slogcontext.FromCtx(ctx).With("dependency", dep.Name)
	out := &Outcome{Dependency: dep}
	out.enter(StateUnchecked)

	provider, err := r.Registry.Get(dep.Input.Source.Kind)
	if err != nil {
		return r.fail(logger, out, "resolve", err)
	}

	sel := dep.Input.Selector
	workPath, err := r.Store.PathFor(dep.Name, sel.DirRef())
	if err != nil {
		return r.fail(logger, out, "path", err)
	}

	if existing := r.existingPath(dep, workPath); existing != "" {
		out.enter(StateSkipped)
		logger.DebugContext(ctx, "already resolved, inspecting in place", "operation", "open", "path", existing)
		return r.resolveExisting(ctx, logger, provider, out, existing, workPath)
	}

	out.enter(StateCloning)
	logger.InfoContext(ctx, "cloning", "operation", "clone", "path", workPath, "remote", dep.Input.Source.Locator)
	repo, err := provider.Clone(ctx, dep.Input.Source.Locator, workPath)
	if err != nil {
		return r.fail(logger, out, "clone", err)
	}
	out.Fetched = true

	out.enter(StateCheckingOut)
	co, err := r.checkout(ctx, provider, repo, sel)
	if err != nil {
		r.discard(ctx, logger, workPath)
		return r.fail(logger, out, "checkout", err)
	}

	finalPath := workPath
	if !sel.IsExact() {
		finalPath, err = r.settle(ctx, logger, provider, out, workPath, co)
		if err != nil {
			return r.fail(logger, out, "rename", err)
		}
	}

	ref := co.Ref
	if ref == "" {
		ref = co.Version
	}
	r.record(out, finalPath, ref, co.Version)
	logger.InfoContext(ctx, "resolved", "operation", "record", "path", finalPath, "ref", ref, "version", co.Version)
	return out, nil
}

// existingPath applies the idempotency predicate: the recorded local path,
// else the working path, when it is a directory.
func (r *Resolver) existingPath(dep dependency.Dependency, workPath string) string {
	if store.IsDir(dep.Locked.LocalPath) {
		return dep.Locked.LocalPath
	}
	if store.IsDir(workPath) {
		return workPath
	}
	return ""
}

func (r *Resolver) resolveExisting(ctx context.Context, logger *slog.Logger, provider source.Provider, out *Outcome, path, workPath string) (*Outcome, error) {
	dep := out.Dependency
	sel := dep.Input.Selector

	repo, err := provider.OpenExisting(ctx, path)
	if err != nil {
		return r.fail(logger, out, "open", err)
	}
	version := repo.Head

	ref := dep.Locked.ResolvedRef()
	if ref == "" && !sel.IsExact() {
		tags, err := provider.ListTags(ctx, repo)
		if err != nil {
			return r.fail(logger, out, "list tags", err)
		}
		tag, ok := r.match(sel, tags)
		if !ok {
			if path == workPath {
				r.discard(ctx, logger, workPath)
			}
			return r.fail(logger, out, "checkout", fmt.Errorf("%w '%s' (%d tags checked)", ErrNoMatchingTag, sel.Range, len(tags)))
		}
		ref = tag
		// A placeholder left by an interrupted run: finish the checkout and rename locally.
		if path == workPath {
			out.enter(StateCheckingOut)
			co, err := provider.ResolveAndCheckout(ctx, repo, ref)
			if err != nil {
				return r.fail(logger, out, "checkout", err)
			}
			if path, err = r.settle(ctx, logger, provider, out, workPath, co); err != nil {
				return r.fail(logger, out, "rename", err)
			}
			version = co.Version
		}
	}
	if ref == "" {
		ref = exactRef(sel)
	}
	if ref == "" || ref == dependency.LatestRef {
		ref = version
	}

	r.record(out, path, ref, version)
	logger.DebugContext(ctx, "resolved in place", "operation", "record", "path", path, "ref", ref, "version", version)
	return out, nil
}

// exactRef is the symbolic ref an exact selector names, or "" when only an
// object id would do.
func exactRef(sel dependency.Selector) string {
	switch sel.Kind {
	case dependency.KindDefault, dependency.KindCommit, dependency.KindSemverRange:
		return ""
	default:
		return sel.Exact
	}
}

func (r *Resolver) checkout(ctx context.Context, provider source.Provider, repo *source.Repository, sel dependency.Selector) (*source.Checkout, error) {
	if sel.IsExact() {
		return provider.ResolveAndCheckout(ctx, repo, sel.CheckoutRef())
	}

	tags, err := provider.ListTags(ctx, repo)
	if err != nil {
		return nil, err
	}
	tag, ok := r.match(sel, tags)
	if !ok {
		return nil, fmt.Errorf("%w '%s' (%d tags checked)", ErrNoMatchingTag, sel.Range, len(tags))
	}
	co, err := provider.ResolveAndCheckout(ctx, repo, tag)
	if err != nil {
		return nil, err
	}
	if co.Ref == "" {
		co.Ref = tag
	}
	return co, nil
}

func (r *Resolver) match(sel dependency.Selector, tags []string) (string, bool) {
	if r.RangePolicy == settings.RangeHighest {
		return sel.HighestMatch(tags)
	}
	return sel.FirstMatch(tags)
}

// settle renames a range checkout from its placeholder directory to its final
// name. If the final directory already exists it is reused and the clone dropped.
func (r *Resolver) settle(ctx context.Context, logger *slog.Logger, provider source.Provider, out *Outcome, workPath string, co *source.Checkout) (string, error) {
	out.enter(StateRenaming)
	finalPath, err := r.Store.PathFor(out.Dependency.Name, co.Ref)
	if err != nil {
		return "", err
	}

	moved, err := r.Store.Move(workPath, finalPath)
	if err != nil {
		return "", err
	}
	if moved {
		logger.DebugContext(ctx, "renamed", "operation", "rename", "path", finalPath)
		return finalPath, nil
	}

	out.Reused = true
	logger.InfoContext(ctx, "final directory exists, reusing it", "operation", "rename", "path", finalPath)
	existing, err := provider.OpenExisting(ctx, finalPath)
	if err != nil {
		return "", err
	}
	co.Version = existing.Head
	return finalPath, nil
}

func (r *Resolver) record(out *Outcome, path, ref, version string) {
	out.Dependency.Locked = dependency.LockedDependency{
		LocalPath:       path,
		ResolvedSource:  dependency.ComposeSource(out.Dependency.Input.Source, ref),
		ResolvedVersion: version,
	}
	out.enter(StateResolved)
}

// discard removes a fresh clone so that the next run starts over.
func (r *Resolver) discard(ctx context.Context, logger *slog.Logger, path string) {
	if err := r.Store.RemoveAll(path); err != nil {
		logger.WarnContext(ctx, "could not remove failed clone", "operation", "cleanup", "path", path, "error", err)
	}
}

func (r *Resolver) fail(logger *slog.Logger, out *Outcome, op string, err error) (*Outcome, error) {
	out.Dependency.Locked = dependency.LockedDependency{}
	out.enter(StateFailed)
	logger.Error("resolution failed", "operation", op, "error", err)
	return out, DependencyError{Dependency: out.Dependency.Name, Operation: op, Err: err}
}
