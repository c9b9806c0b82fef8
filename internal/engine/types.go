package engine

import (
	"errors"
	"fmt"

	"github.com/bianoble/ldh/internal/lock"
)

// ErrNoMatchingTag is returned when no tag satisfies a version range.
var ErrNoMatchingTag = errors.New("no tag satisfies range")

// DependencyError represents a failure of one operation on one dependency.
type DependencyError struct {
	Dependency string
	Operation  string
	Err        error
}

func (e DependencyError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Dependency, e.Operation, e.Err)
}

func (e DependencyError) Unwrap() error {
	return e.Err
}

// Action records what happened to one dependency.
type Action struct {
	Name    string
	Path    string
	Ref     string
	Version string
	Action  string // "cloned", "present", "renamed", "reused", "removed", "retained", "superseded", "untouched"
}

// UpdateResult holds the outcome of an update operation.
type UpdateResult struct {
	Resolved []Action
	Skipped  []Action
	Removed  []Action
	Failed   []DependencyError
	Plan     *Reconciliation // set on dry-run
	Lock     *lock.Document  // nil on dry-run
}

// PruneResult holds the outcome of a prune operation.
type PruneResult struct {
	Removed []Action
	Failed  []DependencyError
	Lock    *lock.Document // nil on dry-run
}

// DriftEntry is a dependency whose checkout no longer matches the lock.
type DriftEntry struct {
	Name     string
	Path     string
	Expected string
	Actual   string
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Clean   bool
	Drifted []DriftEntry
	Missing []string
	Failed  []DependencyError
}
