package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

// fakeRemote is an upstream repository known to fakeProvider.
type fakeRemote struct {
	branch string            // default branch
	head   string            // version id at the default branch
	refs   map[string]string // branch or tag -> version id
	tags   []string          // enumeration order
}

// fakeProvider keeps clones as plain directories holding two marker files
// and records every call.
type fakeProvider struct {
	remotes  map[string]*fakeRemote
	cloneErr map[string]error
	calls    []string
}

const (
	markerRemote = ".remote"
	markerHead   = ".head"
)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{remotes: make(map[string]*fakeRemote), cloneErr: make(map[string]error)}
}

// standardRemote has tags v1.0.0, v1.2.0 and v2.0.0 and a main branch at v2.0.0.
func (p *fakeProvider) standardRemote(url string) *fakeRemote {
	r := &fakeRemote{
		branch: "main",
		head:   "c300",
		refs: map[string]string{
			"main":   "c300",
			"v1.0.0": "c100",
			"v1.2.0": "c120",
			"v2.0.0": "c300",
			"dev":    "cdev",
		},
		tags: []string{"v1.0.0", "v1.2.0", "v2.0.0"},
	}
	p.remotes[url] = r
	return r
}

func (p *fakeProvider) count(op string) int {
	n := 0
	for _, c := range p.calls {
		if c == op || strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (p *fakeProvider) Clone(_ context.Context, remote, dest string) (*source.Repository, error) {
	p.calls = append(p.calls, "clone "+remote)
	if err := p.cloneErr[remote]; err != nil {
		return nil, &source.SourceError{Source: remote, Operation: "clone", Err: err}
	}
	r, ok := p.remotes[remote]
	if !ok {
		return nil, &source.SourceError{Source: remote, Operation: "clone", Err: fmt.Errorf("repository not found")}
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("destination %s already exists", dest)
	}
	if err := writeFakeClone(dest, remote, r.head); err != nil {
		return nil, err
	}
	return &source.Repository{Path: dest, Head: r.head}, nil
}

func (p *fakeProvider) OpenExisting(_ context.Context, path string) (*source.Repository, error) {
	p.calls = append(p.calls, "open "+path)
	head, err := os.ReadFile(filepath.Join(path, markerHead))
	if err != nil {
		return nil, &source.SourceError{Source: path, Operation: "open", Err: err}
	}
	return &source.Repository{Path: path, Head: string(head)}, nil
}

func (p *fakeProvider) ResolveAndCheckout(_ context.Context, repo *source.Repository, ref string) (*source.Checkout, error) {
	p.calls = append(p.calls, "checkout "+ref)
	r, err := p.remoteOf(repo)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		return &source.Checkout{Ref: r.branch, Version: repo.Head}, nil
	}

	matched, version := ref, r.refs[ref]
	if version == "" {
		for _, v := range r.refs {
			if v == ref {
				matched, version = "", v
			}
		}
	}
	if version == "" {
		return nil, &source.SourceError{Source: repo.Path, Operation: "checkout", Err: fmt.Errorf("'%s': %w", ref, source.ErrRefNotFound)}
	}
	if err := os.WriteFile(filepath.Join(repo.Path, markerHead), []byte(version), 0644); err != nil {
		return nil, err
	}
	repo.Head = version
	return &source.Checkout{Ref: matched, Version: version}, nil
}

func (p *fakeProvider) ListTags(_ context.Context, repo *source.Repository) ([]string, error) {
	p.calls = append(p.calls, "tags "+repo.Path)
	r, err := p.remoteOf(repo)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), r.tags...), nil
}

func (p *fakeProvider) remoteOf(repo *source.Repository) (*fakeRemote, error) {
	url, err := os.ReadFile(filepath.Join(repo.Path, markerRemote))
	if err != nil {
		return nil, err
	}
	r, ok := p.remotes[string(url)]
	if !ok {
		return nil, fmt.Errorf("unknown remote %s", url)
	}
	return r, nil
}

func writeFakeClone(dest, remote, head string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dest, markerRemote), []byte(remote), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dest, markerHead), []byte(head), 0644)
}

// testEnv is a project directory with a dependency root and a resolver
// wired to a fake provider.
type testEnv struct {
	project  string
	provider *fakeProvider
	store    *store.Store
	resolver *Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	project, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	st, err := store.New(filepath.Join(project, "target", "dependencies"))
	require.NoError(t, err)

	p := newFakeProvider()
	reg := source.NewRegistry()
	reg.Register(dependency.SourceGit, p)

	return &testEnv{
		project:  project,
		provider: p,
		store:    st,
		resolver: &Resolver{Registry: reg, Store: st},
	}
}

func (e *testEnv) updater() *UpdateEngine {
	return &UpdateEngine{Resolver: e.resolver, ProjectRoot: e.project}
}

func (e *testEnv) path(dir string) string {
	return filepath.Join(e.store.Root(), dir)
}

func gitDep(name, remote string, kind dependency.VersionKind, raw string) dependency.Dependency {
	return dependency.Dependency{
		Name: name,
		Input: dependency.InputDependency{
			Source:   dependency.SourceLocator{Kind: dependency.SourceGit, Locator: remote},
			Selector: dependency.FromString(kind, raw),
		},
	}
}
