package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/bianoble/ldh/internal/dependency"
)

// Load reads, parses and validates a manifest. TOML is the default format;
// files ending in .yaml or .yml are read as YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var (
		doc    document
		tables []table
	)
	if isYAML(path) {
		doc, tables, err = decodeYAML(data)
	} else {
		doc, tables, err = decodeTOML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	m, errs := build(doc, tables)
	errs = append(errs, Validate(m)...)
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return m, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeTOML(data []byte) (document, []table, error) {
	var raw struct {
		Package      packageSection            `toml:"package"`
		Dependencies map[string]map[string]any `toml:"dependencies"`
	}
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return document{}, nil, err
	}

	// MetaData keeps document order; the map does not.
	var tables []table
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "dependencies" || seen[key[1]] {
			continue
		}
		name := key[1]
		seen[name] = true
		values, err := stringValues(name, raw.Dependencies[name])
		if err != nil {
			return document{}, nil, err
		}
		tables = append(tables, table{name: name, values: values})
	}
	return document{Package: raw.Package}, tables, nil
}

func decodeYAML(data []byte) (document, []table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return document{}, nil, err
	}
	deps := mappingValue(&root, "dependencies")
	if deps == nil {
		return doc, nil, nil
	}
	if deps.Kind != yaml.MappingNode {
		return document{}, nil, fmt.Errorf("line %d: 'dependencies' must be a mapping", deps.Line)
	}

	var tables []table
	for i := 0; i+1 < len(deps.Content); i += 2 {
		name := deps.Content[i].Value
		var fields map[string]any
		if err := deps.Content[i+1].Decode(&fields); err != nil {
			return document{}, nil, fmt.Errorf("dependency '%s': %w", name, err)
		}
		values, err := stringValues(name, fields)
		if err != nil {
			return document{}, nil, err
		}
		tables = append(tables, table{name: name, values: values})
	}
	return doc, tables, nil
}

// mappingValue returns the value node for key in the document's top-level mapping.
func mappingValue(root *yaml.Node, key string) *yaml.Node {
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func stringValues(name string, fields map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(fields))
	for k, v := range fields {
		switch tv := v.(type) {
		case string:
			values[k] = tv
		case int, int64, float64, bool:
			values[k] = fmt.Sprint(tv)
		default:
			return nil, fmt.Errorf("dependency '%s': key '%s' must be a string", name, k)
		}
	}
	return values, nil
}

// build converts decoded tables into dependencies. Structural problems in a
// table are returned as messages; the dependency is still produced so that
// Validate can report on it too.
func build(doc document, tables []table) (*Manifest, []string) {
	m := &Manifest{
		Package: dependency.PackageInfo{
			Name:    doc.Package.Name,
			Version: doc.Package.Version,
			Authors: doc.Package.Authors,
		},
	}

	var errs []string
	for _, t := range tables {
		dep, tableErrs := toDependency(t)
		errs = append(errs, tableErrs...)
		m.Dependencies = append(m.Dependencies, dep)
	}
	return m, errs
}

func toDependency(t table) (dependency.Dependency, []string) {
	dep := dependency.Dependency{Name: t.name}
	prefix := fmt.Sprintf("dependency '%s'", t.name)

	if !t.has(keyGit) {
		dep.Input.Source = dependency.SourceLocator{Kind: dependency.SourceUnknown}
		return dep, nil
	}
	dep.Input.Source = dependency.SourceLocator{Kind: dependency.SourceGit, Locator: t.values[keyGit]}

	var errs []string
	var present []string
	kind := dependency.KindDefault
	raw := ""
	for _, sk := range selectorKeys {
		if !t.has(sk.key) {
			continue
		}
		present = append(present, sk.key)
		if len(present) == 1 {
			kind, raw = sk.kind, t.values[sk.key]
		}
	}
	if len(present) > 1 {
		errs = append(errs, fmt.Sprintf("%s: only one of 'branch', 'tag', 'commit' or 'version' may be set, found %s", prefix, strings.Join(present, ", ")))
	}
	if len(present) == 1 && strings.TrimSpace(raw) == "" {
		errs = append(errs, fmt.Sprintf("%s: '%s' must not be empty", prefix, present[0]))
	}

	var unknown []string
	for k := range t.values {
		switch k {
		case keyGit, keyBranch, keyTag, keyCommit, keyVersion:
		default:
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Sprintf("%s: unknown key(s) %s", prefix, strings.Join(unknown, ", ")))
	}

	dep.Input.Selector = dependency.FromString(kind, raw)
	return dep, errs
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Manifest for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(m *Manifest) []string {
	var errs []string

	if m.Package.Name == "" {
		errs = append(errs, "package: 'name' is required")
	}

	names := make(map[string]bool)
	for i, dep := range m.Dependencies {
		prefix := fmt.Sprintf("dependency[%d]", i)
		if dep.Name != "" {
			prefix = fmt.Sprintf("dependency '%s'", dep.Name)
		}

		switch {
		case dep.Name == "":
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		case names[dep.Name]:
			errs = append(errs, fmt.Sprintf("%s: duplicate dependency name '%s'", prefix, dep.Name))
		case strings.ContainsAny(dep.Name, `/\`) || dep.Name == "." || dep.Name == "..":
			errs = append(errs, fmt.Sprintf("%s: name must not contain path separators", prefix))
		default:
			names[dep.Name] = true
		}

		switch dep.Input.Source.Kind {
		case dependency.SourceGit:
			if dep.Input.Source.Locator == "" {
				errs = append(errs, fmt.Sprintf("%s: 'git' must not be empty, set it to the repository URL", prefix))
			}
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown source kind, add 'git = \"https://...\"' to the dependency table", prefix))
		}
	}

	return errs
}
