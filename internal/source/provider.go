package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bianoble/ldh/internal/dependency"
)

// ErrRefNotFound is returned when a reference resolves to no branch, tag or commit.
var ErrRefNotFound = errors.New("reference not found")

// Provider performs the version-control operations the engine needs.
// Every call is a single blocking attempt.
type Provider interface {
	// Clone fetches remote into dest, which must not exist yet.
	Clone(ctx context.Context, remote, dest string) (*Repository, error)

	// OpenExisting inspects an already cloned directory without touching the network.
	OpenExisting(ctx context.Context, path string) (*Repository, error)

	// ResolveAndCheckout moves HEAD and the working tree to ref. Local
	// branches and tags are tried first, then remote-tracking branches, then
	// object ids. An empty ref leaves the clone's default state in place.
	ResolveAndCheckout(ctx context.Context, repo *Repository, ref string) (*Checkout, error)

	// ListTags enumerates tag names. Order is provider-defined.
	ListTags(ctx context.Context, repo *Repository) ([]string, error)
}

// Repository is a handle on a local clone.
type Repository struct {
	Path string
	Head string // concrete object id at HEAD
}

// Checkout is the outcome of ResolveAndCheckout.
type Checkout struct {
	Ref     string // matched branch or tag name; empty for a bare object id
	Version string // object id now at HEAD
}

// SourceError represents an error associated with a specific source operation.
type SourceError struct {
	Source    string
	Operation string
	Err       error
	Hint      string
}

func (e *SourceError) Error() string {
	msg := fmt.Sprintf("%s: %s failed: %s", e.Source, e.Operation, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Registry maps source kinds to Provider implementations.
type Registry struct {
	providers map[dependency.SourceKind]Provider
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[dependency.SourceKind]Provider)}
}

// DefaultRegistry returns a registry with the git provider registered.
func DefaultRegistry(gitBinary string) *Registry {
	r := NewRegistry()
	r.Register(dependency.SourceGit, &GitProvider{Binary: gitBinary})
	return r
}

// Register adds a provider for the given source kind.
func (r *Registry) Register(kind dependency.SourceKind, p Provider) {
	r.providers[kind] = p
}

// Get returns the provider for the given source kind.
func (r *Registry) Get(kind dependency.SourceKind) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind '%s', supported kinds: %s", kind, r.supportedKinds())
	}
	return p, nil
}

func (r *Registry) supportedKinds() string {
	kinds := make([]string, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k.String())
	}
	if len(kinds) == 0 {
		return "(none registered)"
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ", ")
}
