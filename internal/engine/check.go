package engine

import (
	"context"
	"fmt"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

// Check compares every locked checkout's HEAD with its recorded version.
// Only local repositories are inspected.
func Check(ctx context.Context, reg *source.Registry, current *lock.Document, projectRoot string) (*CheckResult, error) {
	if current == nil {
		return nil, fmt.Errorf("no lockfile")
	}
	logger := slogcontext.FromCtx(ctx)
	result := &CheckResult{}

	for _, e := range current.Packages {
		path := store.Abs(projectRoot, e.Path)
		if !store.IsDir(path) {
			result.Missing = append(result.Missing, e.Name)
			continue
		}

		kind, _, _, err := dependency.ParseSource(e.Source)
		if err != nil {
			result.Failed = append(result.Failed, DependencyError{Dependency: e.Name, Operation: "check", Err: err})
			continue
		}
		provider, err := reg.Get(kind)
		if err != nil {
			result.Failed = append(result.Failed, DependencyError{Dependency: e.Name, Operation: "check", Err: err})
			continue
		}

		repo, err := provider.OpenExisting(ctx, path)
		if err != nil {
			result.Failed = append(result.Failed, DependencyError{Dependency: e.Name, Operation: "open", Err: err})
			continue
		}
		if repo.Head != e.Version {
			logger.DebugContext(ctx, "drift", "dependency", e.Name, "expected", e.Version, "actual", repo.Head)
			result.Drifted = append(result.Drifted, DriftEntry{
				Name:     e.Name,
				Path:     e.Path,
				Expected: e.Version,
				Actual:   repo.Head,
			})
		}
	}

	result.Clean = len(result.Drifted) == 0 && len(result.Missing) == 0 && len(result.Failed) == 0
	return result, nil
}
