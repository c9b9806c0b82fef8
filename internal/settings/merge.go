package settings

import "fmt"

// Merge combines two settings layers; any field set in overlay wins.
func Merge(base, overlay *Settings) *Settings {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}

	result := *base
	if overlay.DependencyRoot != "" {
		result.DependencyRoot = overlay.DependencyRoot
	}
	if overlay.RangePolicy != "" {
		result.RangePolicy = overlay.RangePolicy
	}
	if overlay.GitBinary != "" {
		result.GitBinary = overlay.GitBinary
	}
	return &result
}

// MergeAll merges layers in order (lowest precedence first).
func MergeAll(layers []*Settings) (*Settings, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("no settings to merge")
	}

	result := layers[0]
	for i := 1; i < len(layers); i++ {
		result = Merge(result, layers[i])
	}
	return result, nil
}
