package engine

import (
	"github.com/bianoble/ldh/internal/settings"
	"github.com/bianoble/ldh/internal/store"
)

// SettingsLayerStatus describes a settings layer's load status for display.
type SettingsLayerStatus struct {
	Level  string // "system", "user", "project"
	Path   string
	Loaded bool
}

// InfoResult holds tool information for the info command.
type InfoResult struct {
	Version        string
	ManifestPath   string
	LockPath       string
	DependencyRoot string
	RangePolicy    string
	GitBinary      string
	SettingsChain  []SettingsLayerStatus
	StoreSize      int64
	StoreEntries   int
}

// Info gathers tool information.
func Info(version string, hr *settings.HierarchicalResult, st *store.Store, manifestPath, lockPath string) (*InfoResult, error) {
	r := &InfoResult{
		Version:      version,
		ManifestPath: manifestPath,
		LockPath:     lockPath,
	}

	if hr != nil {
		if hr.Settings != nil {
			r.RangePolicy = hr.Settings.RangePolicy
			r.GitBinary = hr.Settings.GitBinary
		}
		for _, l := range hr.Layers {
			r.SettingsChain = append(r.SettingsChain, SettingsLayerStatus{
				Level:  string(l.Level),
				Path:   l.Path,
				Loaded: l.Loaded,
			})
		}
	}

	if st != nil {
		r.DependencyRoot = st.Root()
		if size, err := st.Size(); err == nil {
			r.StoreSize = size
		}
		if entries, err := st.Entries(); err == nil {
			r.StoreEntries = len(entries)
		}
	}

	return r, nil
}
