package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDependencyRoot = "LDH_DEPENDENCY_ROOT"
	EnvRangePolicy    = "LDH_RANGE_POLICY"
	EnvGitBinary      = "LDH_GIT_BINARY"
)

// Load reads and validates a single settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	if errs := Validate(&s); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &s, nil
}

// HierarchicalResult is the merged settings plus per-layer load status.
type HierarchicalResult struct {
	Settings *Settings
	Layers   []LayerInfo
}

// LoadHierarchical loads every discovered layer on top of the defaults.
// Missing layers are skipped; a layer that exists but fails to load is an error.
func LoadHierarchical(opts DiscoverOptions) (*HierarchicalResult, error) {
	defaults := Defaults()
	stack := []*Settings{&defaults}

	layers := DiscoverPaths(opts)
	for i := range layers {
		s, err := Load(layers[i].Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			layers[i].Err = err
			return &HierarchicalResult{Layers: layers}, fmt.Errorf("%s settings: %w", layers[i].Level, err)
		}
		layers[i].Loaded = true
		stack = append(stack, s)
	}

	merged, err := MergeAll(stack)
	if err != nil {
		return nil, err
	}
	return &HierarchicalResult{Settings: merged, Layers: layers}, nil
}

// LoadEnv loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from LDH_* environment variables.
func ApplyEnv(s *Settings) {
	if v := strings.TrimSpace(os.Getenv(EnvDependencyRoot)); v != "" {
		s.DependencyRoot = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRangePolicy)); v != "" {
		s.RangePolicy = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvGitBinary)); v != "" {
		s.GitBinary = v
	}
}

// Resolve builds the effective settings for a project: .env, then the
// settings hierarchy, then environment overrides.
func Resolve(projectDir string) (*HierarchicalResult, error) {
	if err := LoadEnv(projectDir); err != nil {
		return nil, err
	}

	hr, err := LoadHierarchical(DiscoverOptions{
		ProjectDir: projectDir,
		NoInherit:  EnvNoInherit(),
	})
	if err != nil {
		return hr, err
	}

	ApplyEnv(hr.Settings)
	if errs := Validate(hr.Settings); len(errs) > 0 {
		return hr, &ValidationError{Errors: errs}
	}
	return hr, nil
}

// RootDir returns the absolute dependency root for a project.
func (s *Settings) RootDir(projectDir string) string {
	if filepath.IsAbs(s.DependencyRoot) {
		return filepath.Clean(s.DependencyRoot)
	}
	return filepath.Join(projectDir, s.DependencyRoot)
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("settings validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks fields that are set; empty fields fall back to defaults.
func Validate(s *Settings) []string {
	var errs []string

	switch s.RangePolicy {
	case "", RangeFirst, RangeHighest:
	default:
		errs = append(errs, fmt.Sprintf("invalid range_policy '%s', must be one of: %s, %s", s.RangePolicy, RangeFirst, RangeHighest))
	}

	if strings.ContainsAny(s.GitBinary, "\n\r") {
		errs = append(errs, "git_binary must be a single path")
	}

	return errs
}
