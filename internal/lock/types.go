package lock

import "github.com/bianoble/ldh/internal/dependency"

// CurrentVersion is the only lock document version this build reads and writes.
const CurrentVersion = 1

// Document represents the ldh.lock file.
type Document struct {
	Version  int     `toml:"version" yaml:"version"`
	Packages []Entry `toml:"packages" yaml:"packages"`
}

// Entry records the resolved state of one dependency.
type Entry struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
	Source  string `toml:"source" yaml:"source"`
	Path    string `toml:"path" yaml:"path"`
}

// Locked converts the entry to the engine's locked representation.
func (e Entry) Locked() dependency.LockedDependency {
	return dependency.LockedDependency{
		LocalPath:       e.Path,
		ResolvedSource:  e.Source,
		ResolvedVersion: e.Version,
	}
}

// FromDependency builds an entry from a dependency's locked side.
func FromDependency(d dependency.Dependency) Entry {
	return Entry{
		Name:    d.Name,
		Version: d.Locked.ResolvedVersion,
		Source:  d.Locked.ResolvedSource,
		Path:    d.Locked.LocalPath,
	}
}

// Find returns the entry with the given name.
func (d *Document) Find(name string) (Entry, bool) {
	if d == nil {
		return Entry{}, false
	}
	for _, e := range d.Packages {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
