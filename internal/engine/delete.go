package engine

import (
	"context"
	"fmt"
	"path/filepath"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/store"
)

// Delete removes the directory of a dependency that is no longer declared.
// The caller keeps the lock entry when Delete returns an error.
func Delete(ctx context.Context, st *store.Store, dep dependency.Dependency) error {
	logger := slogcontext.FromCtx(ctx).With("dependency", dep.Name, "operation", "delete")

	if dep.Input.HasValue() {
		return DependencyError{Dependency: dep.Name, Operation: "delete", Err: fmt.Errorf("still declared in the manifest")}
	}
	if dep.Locked.LocalPath == "" {
		return DependencyError{Dependency: dep.Name, Operation: "delete", Err: fmt.Errorf("no recorded path")}
	}

	if err := st.RemoveAll(dep.Locked.LocalPath); err != nil {
		logger.Warn("removal failed, keeping lock entry", "path", dep.Locked.LocalPath, "error", err)
		return DependencyError{Dependency: dep.Name, Operation: "delete", Err: err}
	}
	logger.Info("removed", "path", dep.Locked.LocalPath)
	return nil
}

// pathsInUse collects the directories held by declared dependencies. A removed
// lock entry pointing at one of them is dropped without deleting anything.
func pathsInUse(deps dependency.Set) map[string]bool {
	paths := make(map[string]bool, len(deps))
	for _, d := range deps {
		if d.Input.HasValue() && d.Locked.LocalPath != "" {
			paths[filepath.Clean(d.Locked.LocalPath)] = true
		}
	}
	return paths
}
