package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// ProjectDirName holds project-level settings next to the manifest.
const ProjectDirName = ".ldh"

// Settings files are <dir>/ldh/settings.yaml on the system and user levels and
// <project>/.ldh/settings.yaml on the project level.
const (
	appDir   = "ldh"
	fileName = "settings.yaml"
)

// Level names where a settings layer came from. Later levels win.
type Level string

const (
	LevelSystem  Level = "system"
	LevelUser    Level = "user"
	LevelProject Level = "project"
)

// LayerInfo is one candidate settings file. Loaded and Err are filled in by
// LoadHierarchical.
type LayerInfo struct {
	Err    error
	Path   string
	Level  Level
	Loaded bool
}

// DiscoverOptions selects which layers are considered. Empty SystemPath and
// UserPath use the platform locations.
type DiscoverOptions struct {
	ProjectDir string
	SystemPath string
	UserPath   string
	NoInherit  bool // project layer only
}

// DiscoverPaths lists candidate settings files from lowest to highest
// precedence. A file reachable from two levels is only listed at the lower one.
func DiscoverPaths(opts DiscoverOptions) []LayerInfo {
	var candidates []LayerInfo
	if !opts.NoInherit {
		candidates = append(candidates,
			LayerInfo{Level: LevelSystem, Path: orDefault(opts.SystemPath, systemSettingsPath)},
			LayerInfo{Level: LevelUser, Path: orDefault(opts.UserPath, userSettingsPath)},
		)
	}
	if opts.ProjectDir != "" {
		candidates = append(candidates, LayerInfo{
			Level: LevelProject,
			Path:  filepath.Join(opts.ProjectDir, ProjectDirName, fileName),
		})
	}

	seen := make(map[string]bool, len(candidates))
	layers := candidates[:0]
	for _, c := range candidates {
		if c.Path == "" {
			continue
		}
		key := c.Path
		if abs, err := filepath.Abs(c.Path); err == nil {
			key = abs
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		layers = append(layers, c)
	}
	return layers
}

func orDefault(path string, fallback func() string) string {
	if path != "" {
		return path
	}
	return fallback()
}

func systemSettingsPath() string {
	if runtime.GOOS != "windows" {
		return filepath.Join("/etc", appDir, fileName)
	}
	base := os.Getenv("ProgramData")
	if base == "" {
		base = `C:\ProgramData`
	}
	return filepath.Join(base, appDir, fileName)
}

// userSettingsPath follows os.UserConfigDir, so XDG_CONFIG_HOME is honored.
// No home directory means no user layer.
func userSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, fileName)
}

// EnvNoInherit reports whether LDH_NO_INHERIT asks to skip the system and
// user layers. Any value strconv.ParseBool accepts as true counts.
func EnvNoInherit() bool {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("LDH_NO_INHERIT")))
	return err == nil && on
}
