package settings

// Settings tune how ldh lays out and resolves dependencies. They are
// independent of any one manifest.
type Settings struct {
	// DependencyRoot is where dependencies are checked out, relative to the
	// project directory unless absolute.
	DependencyRoot string `yaml:"dependency_root,omitempty"`

	// RangePolicy picks the tag for a semantic-version range: "first"
	// (first matching tag in provider order) or "highest".
	RangePolicy string `yaml:"range_policy,omitempty"`

	// GitBinary is the git executable used by the git provider.
	GitBinary string `yaml:"git_binary,omitempty"`
}

const (
	DefaultDependencyRoot = "target/dependencies"
	DefaultGitBinary      = "git"

	RangeFirst   = "first"
	RangeHighest = "highest"
)

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DependencyRoot: DefaultDependencyRoot,
		RangePolicy:    RangeFirst,
		GitBinary:      DefaultGitBinary,
	}
}
