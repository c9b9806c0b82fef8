package dependency

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersionKind tags how a dependency's requested version is interpreted.
type VersionKind int

const (
	// KindDefault requests the provider's default branch (no version given).
	KindDefault VersionKind = iota
	KindBranch
	KindTag
	KindCommit
	KindSemverExact
	KindSemverRange
)

// LatestRef is the directory ref used for dependencies that pin no version.
const LatestRef = "latest"

// TempRef is the directory ref used while a range is resolved; the real tag
// is only known after the fetch.
const TempRef = "temp"

func (k VersionKind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindBranch:
		return "branch"
	case KindTag:
		return "tag"
	case KindCommit:
		return "commit"
	case KindSemverExact:
		return "semver"
	case KindSemverRange:
		return "semver-range"
	default:
		return "unknown"
	}
}

// IsSemver reports whether the kind takes semantic-version input.
func (k VersionKind) IsSemver() bool {
	return k == KindSemverExact || k == KindSemverRange
}

// Selector is the version constraint attached to a dependency.
// Exactly one of Exact or Range is set once built from input.
type Selector struct {
	Kind  VersionKind
	Exact string
	Range string
}

// FromString builds a selector of the given kind from raw input.
//
// Non-semver kinds are always exact. A semver kind is exact when raw is a
// complete version ("1.2.3", "v1.2.3") and a range otherwise ("^1.0", ">=2 <3").
// An empty default selector gets the "latest" sentinel.
func FromString(kind VersionKind, raw string) Selector {
	raw = strings.TrimSpace(raw)
	if kind == KindDefault && raw == "" {
		return Selector{Kind: KindDefault, Exact: LatestRef}
	}
	if !kind.IsSemver() {
		return Selector{Kind: kind, Exact: raw}
	}
	if isCompleteSemver(raw) {
		return Selector{Kind: KindSemverExact, Exact: raw}
	}
	return Selector{Kind: KindSemverRange, Range: raw}
}

func isCompleteSemver(raw string) bool {
	if raw == "" {
		return false
	}
	_, err := semver.StrictNewVersion(strings.TrimPrefix(raw, "v"))
	return err == nil
}

// VersionsMatch reports whether candidate satisfies the selector.
// Exact selectors compare bytes; ranges accept pre-releases. Anything that
// does not parse does not match.
func (s Selector) VersionsMatch(candidate string) bool {
	if s.Exact != "" {
		return s.Exact == candidate
	}
	if s.Range == "" {
		return false
	}
	c, err := semver.NewConstraint(s.Range)
	if err != nil {
		return false
	}
	c.IncludePrerelease = true
	v, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// FirstMatch returns the first tag, in the given order, that satisfies the selector.
func (s Selector) FirstMatch(tags []string) (string, bool) {
	for _, t := range tags {
		if s.VersionsMatch(t) {
			return t, true
		}
	}
	return "", false
}

// HighestMatch returns the greatest satisfying tag by semantic-version
// precedence. Ties keep the earlier tag.
func (s Selector) HighestMatch(tags []string) (string, bool) {
	var (
		best    string
		bestVer *semver.Version
	)
	for _, t := range tags {
		if !s.VersionsMatch(t) {
			continue
		}
		v, err := semver.NewVersion(t)
		if err != nil {
			continue
		}
		if bestVer == nil || v.GreaterThan(bestVer) {
			best, bestVer = t, v
		}
	}
	return best, bestVer != nil
}

// IsExact reports whether the selector names one concrete ref.
func (s Selector) IsExact() bool {
	return s.Kind != KindSemverRange
}

// Empty reports whether no exact ref is held.
func (s Selector) Empty() bool {
	return s.Exact == ""
}

// DirRef is the ref used in the dependency's directory name.
func (s Selector) DirRef() string {
	if !s.IsExact() {
		return TempRef
	}
	if s.Exact == "" {
		return LatestRef
	}
	return s.Exact
}

// CheckoutRef is the ref passed to the provider, empty when the clone's
// default state should be used.
func (s Selector) CheckoutRef() string {
	if s.Kind == KindDefault || !s.IsExact() {
		return ""
	}
	return s.Exact
}

// String returns the raw selector text.
func (s Selector) String() string {
	if s.Range != "" {
		return s.Range
	}
	return s.Exact
}
