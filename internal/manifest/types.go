package manifest

import "github.com/bianoble/ldh/internal/dependency"

// DefaultFileName is the manifest file looked up when none is given.
const DefaultFileName = "ldh.toml"

// Manifest is the validated content of an ldh.toml file. Nothing past this
// package sees raw document nodes.
type Manifest struct {
	Package      dependency.PackageInfo
	Dependencies dependency.Set
}

// document mirrors the on-disk layout of the package section.
type document struct {
	Package packageSection `toml:"package" yaml:"package"`
}

type packageSection struct {
	Name    string   `toml:"name" yaml:"name"`
	Version string   `toml:"version" yaml:"version"`
	Authors []string `toml:"authors" yaml:"authors"`
}

// Keys accepted in a dependency table.
const (
	keyGit     = "git"
	keyBranch  = "branch"
	keyTag     = "tag"
	keyCommit  = "commit"
	keyVersion = "version"
)

// selectorKeys are checked in this order; at most one may be present.
var selectorKeys = []struct {
	key  string
	kind dependency.VersionKind
}{
	{keyBranch, dependency.KindBranch},
	{keyTag, dependency.KindTag},
	{keyCommit, dependency.KindCommit},
	{keyVersion, dependency.KindSemverExact},
}

// table is one dependency entry as read from the document: the keys that
// were present and their values.
type table struct {
	name   string
	values map[string]string
}

func (t table) has(key string) bool {
	_, ok := t.values[key]
	return ok
}
