package engine

import (
	"strings"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/lock"
)

// Reconciliation partitions a manifest against a previous lock document.
// It is built fresh; neither input is modified.
type Reconciliation struct {
	Matched []dependency.Dependency // declared and previously resolved
	Added   []dependency.Dependency // declared, not in the lock
	Removed []dependency.Dependency // locked, no longer declared

	manifest dependency.Set
}

// Manifest returns the declared dependencies in manifest order with matched
// lock data merged in.
func (r Reconciliation) Manifest() dependency.Set {
	return append(dependency.Set(nil), r.manifest...)
}

// All returns the manifest dependencies followed by the removed entries.
func (r Reconciliation) All() dependency.Set {
	all := make(dependency.Set, 0, len(r.manifest)+len(r.Removed))
	all = append(all, r.manifest...)
	return append(all, r.Removed...)
}

// Reconcile matches lock entries to manifest dependencies.
//
// An entry matches a dependency of the same name when the entry's path
// contains "<name>-<ref>" for an exact selector, or "<name>-" with a
// recorded ref satisfying the range for a range selector. Only complete
// entries are merged; anything else is reported as removed.
func Reconcile(deps dependency.Set, doc *lock.Document) Reconciliation {
	rec := Reconciliation{manifest: make(dependency.Set, len(deps))}
	for i, d := range deps {
		d.Locked = dependency.LockedDependency{}
		rec.manifest[i] = d
	}

	claimed := make([]bool, len(deps))
	if doc != nil {
		for _, e := range doc.Packages {
			locked := e.Locked()
			i := -1
			if locked.Complete() {
				i = matchEntry(rec.manifest, claimed, e)
			}
			if i < 0 {
				rec.Removed = append(rec.Removed, dependency.Dependency{Name: e.Name, Locked: locked})
				continue
			}
			claimed[i] = true
			rec.manifest[i].Locked = locked
		}
	}

	for i, d := range rec.manifest {
		if claimed[i] {
			rec.Matched = append(rec.Matched, d)
		} else {
			rec.Added = append(rec.Added, d)
		}
	}
	return rec
}

func matchEntry(deps dependency.Set, claimed []bool, e lock.Entry) int {
	for i, d := range deps {
		if claimed[i] || d.Name != e.Name {
			continue
		}
		sel := d.Input.Selector
		if sel.IsExact() {
			if strings.Contains(e.Path, d.Key()) {
				return i
			}
			continue
		}
		if strings.Contains(e.Path, d.Name+"-") && sel.VersionsMatch(e.Locked().ResolvedRef()) {
			return i
		}
	}
	return -1
}
