package dependency

import (
	"fmt"
	"strings"
)

// PackageInfo describes the package owning a manifest. It plays no part in
// resolution.
type PackageInfo struct {
	Name    string
	Version string
	Authors []string
}

// SourceKind identifies the kind of remote a dependency comes from.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceGit
)

func (k SourceKind) String() string {
	switch k {
	case SourceGit:
		return "git"
	default:
		return ""
	}
}

// ParseSourceKind maps a kind prefix ("git") back to a SourceKind.
func ParseSourceKind(s string) SourceKind {
	switch s {
	case "git":
		return SourceGit
	default:
		return SourceUnknown
	}
}

// SourceLocator points at a remote.
type SourceLocator struct {
	Kind    SourceKind
	Locator string
}

// InputDependency is what the manifest declares for a dependency.
type InputDependency struct {
	Source   SourceLocator
	Selector Selector
}

// HasValue is false for dependencies that only exist in the lock document.
func (in InputDependency) HasValue() bool {
	return !(in.Source.Locator == "" && in.Selector.Empty() && in.Selector.Range == "")
}

// LockedDependency is the resolved state recorded in the lock document.
type LockedDependency struct {
	LocalPath       string
	ResolvedSource  string
	ResolvedVersion string
}

// HasValue is false when nothing has been resolved.
func (l LockedDependency) HasValue() bool {
	return !(l.LocalPath == "" && l.ResolvedSource == "" && l.ResolvedVersion == "")
}

// Complete reports whether every field is populated.
func (l LockedDependency) Complete() bool {
	return l.LocalPath != "" && l.ResolvedSource != "" && l.ResolvedVersion != ""
}

// ResolvedRef returns the ref fragment of ResolvedSource, or "".
func (l LockedDependency) ResolvedRef() string {
	_, _, ref, err := ParseSource(l.ResolvedSource)
	if err != nil {
		return ""
	}
	return ref
}

// ComposeSource builds the "<kind>+<locator>#<ref>" descriptor.
func ComposeSource(loc SourceLocator, ref string) string {
	return fmt.Sprintf("%s+%s#%s", loc.Kind, loc.Locator, ref)
}

// ParseSource splits a "<kind>+<locator>#<ref>" descriptor.
func ParseSource(s string) (SourceKind, string, string, error) {
	kindStr, rest, ok := strings.Cut(s, "+")
	if !ok {
		return SourceUnknown, "", "", fmt.Errorf("source %q: missing '+' after kind", s)
	}
	kind := ParseSourceKind(kindStr)
	if kind == SourceUnknown {
		return SourceUnknown, "", "", fmt.Errorf("source %q: unknown kind '%s'", s, kindStr)
	}
	i := strings.LastIndex(rest, "#")
	if i < 0 {
		return SourceUnknown, "", "", fmt.Errorf("source %q: missing '#<ref>'", s)
	}
	locator, ref := rest[:i], rest[i+1:]
	if locator == "" {
		return SourceUnknown, "", "", fmt.Errorf("source %q: empty locator", s)
	}
	return kind, locator, ref, nil
}

// Dependency pairs a manifest declaration with its locked state.
//
// A dependency with only Input is new, one with only Locked was removed from
// the manifest, one with both was resolved before and is re-checked.
type Dependency struct {
	Name   string
	Input  InputDependency
	Locked LockedDependency
}

func (d Dependency) IsNew() bool     { return d.Input.HasValue() && !d.Locked.HasValue() }
func (d Dependency) IsRemoved() bool { return !d.Input.HasValue() && d.Locked.HasValue() }
func (d Dependency) IsTracked() bool { return d.Input.HasValue() && d.Locked.HasValue() }

// Key is the directory name the dependency gets for its selector.
func (d Dependency) Key() string {
	return DirName(d.Name, d.Input.Selector.DirRef())
}

var refSanitizer = strings.NewReplacer("/", "_", `\`, "_")

// DirName is "<name>-<ref>" with path separators in ref flattened, so that
// branches like "feature/x" stay one directory.
func DirName(name, ref string) string {
	return name + "-" + refSanitizer.Replace(ref)
}

// Set is an ordered collection of dependencies owned by one manifest run.
type Set []Dependency

// Names returns the dependency names in order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for _, d := range s {
		names = append(names, d.Name)
	}
	return names
}

// Find returns the first dependency with the given name.
func (s Set) Find(name string) (Dependency, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return Dependency{}, false
}
