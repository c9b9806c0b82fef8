package engine

import (
	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/lock"
	"github.com/bianoble/ldh/internal/manifest"
	"github.com/bianoble/ldh/internal/store"
)

// DependencyStatus describes the current state of a dependency.
type DependencyStatus struct {
	Name     string
	Selector string
	Ref      string
	Version  string
	Path     string
	State    string // "resolved", "missing", "pending", "removed"
}

// Status reports every declared dependency in manifest order, followed by
// lock entries that are no longer declared. It touches neither the network
// nor the disk beyond stat calls.
func Status(m *manifest.Manifest, current *lock.Document, projectRoot string, names []string) []DependencyStatus {
	var declared dependency.Set
	if m != nil {
		declared = m.Dependencies
	}
	rec := absolutize(Reconcile(declared, current), projectRoot)

	filter := make(map[string]bool, len(names))
	for _, n := range names {
		filter[n] = true
	}

	var out []DependencyStatus
	for _, d := range rec.All() {
		if len(filter) > 0 && !filter[d.Name] {
			continue
		}
		s := DependencyStatus{
			Name:    d.Name,
			Ref:     d.Locked.ResolvedRef(),
			Version: d.Locked.ResolvedVersion,
			Path:    store.Rel(projectRoot, d.Locked.LocalPath),
			State:   computeState(d),
		}
		if d.Input.HasValue() {
			s.Selector = d.Input.Selector.String()
		}
		out = append(out, s)
	}
	return out
}

func computeState(d dependency.Dependency) string {
	switch {
	case d.IsRemoved():
		return "removed"
	case !d.Locked.HasValue():
		return "pending"
	case store.IsDir(d.Locked.LocalPath):
		return "resolved"
	default:
		return "missing"
	}
}
