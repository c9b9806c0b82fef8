package lock

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/ldh/internal/dependency"
)

// Load reads and validates a lock document. TOML is the default format;
// files ending in .yaml or .yml are read as YAML.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var doc Document
	if isYAML(path) {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}

	if errs := Validate(&doc); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &doc, nil
}

// Save writes a lock document atomically using a temp file and rename.
func Save(path string, doc *Document) error {
	data, err := Marshal(path, doc)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp lockfile %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp lockfile to %s: %w", path, err)
	}

	return nil
}

// Marshal encodes doc in the format implied by path.
func Marshal(path string, doc *Document) ([]byte, error) {
	if isYAML(path) {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling lockfile: %w", err)
		}
		return data, nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("marshaling lockfile: %w", err)
	}
	return buf.Bytes(), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Document for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(doc *Document) []string {
	var errs []string

	if doc.Version != CurrentVersion {
		errs = append(errs, fmt.Sprintf("unsupported version %d, only version %d is supported", doc.Version, CurrentVersion))
	}

	// A name may repeat while an old directory of a renamed version awaits removal,
	// but never with the same path.
	seen := make(map[[2]string]bool)
	for i, e := range doc.Packages {
		prefix := fmt.Sprintf("package[%d]", i)
		if e.Name != "" {
			prefix = fmt.Sprintf("package '%s'", e.Name)
		}

		key := [2]string{e.Name, e.Path}
		if e.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		} else if seen[key] {
			errs = append(errs, fmt.Sprintf("%s: duplicate package entry for path '%s'", prefix, e.Path))
		} else {
			seen[key] = true
		}

		if e.Path == "" {
			errs = append(errs, fmt.Sprintf("%s: 'path' is required", prefix))
		}

		if e.Source != "" {
			if _, _, _, err := dependency.ParseSource(e.Source); err != nil {
				errs = append(errs, fmt.Sprintf("%s: invalid 'source': %s", prefix, err))
			}
		}
	}

	return errs
}
