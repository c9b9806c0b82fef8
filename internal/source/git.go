package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitProvider implements Provider by running the git binary.
type GitProvider struct {
	// Binary is the git executable; "git" when empty.
	Binary string
}

func (g *GitProvider) binary() string {
	if g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// run executes git in dir and returns trimmed stdout.
func (g *GitProvider) run(ctx context.Context, dir string, args ...string) (string, error) {
	sub := args[0]
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %s: %w", sub, msg, err)
		}
		return "", fmt.Errorf("git %s: %w", sub, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// exists reports whether git can verify rev in dir.
func (g *GitProvider) exists(ctx context.Context, dir, rev string) bool {
	_, err := g.run(ctx, dir, "rev-parse", "--verify", "--quiet", rev)
	return err == nil
}

// Clone makes a full clone of remote into dest, which must not exist yet.
func (g *GitProvider) Clone(ctx context.Context, remote, dest string) (*Repository, error) {
	if remote == "" {
		return nil, &SourceError{Source: dest, Operation: "clone", Err: fmt.Errorf("remote is required"), Hint: "set 'git' to the repository URL"}
	}
	if _, err := os.Stat(dest); err == nil {
		return nil, &SourceError{Source: remote, Operation: "clone", Err: fmt.Errorf("destination %s already exists", dest)}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, &SourceError{Source: remote, Operation: "clone", Err: err}
	}

	if _, err := g.run(ctx, "", "clone", "--quiet", "--", remote, dest); err != nil {
		// git leaves nothing behind on failure, but a killed process might.
		_ = os.RemoveAll(dest)
		return nil, &SourceError{Source: remote, Operation: "clone", Err: err, Hint: "check the repository URL and authentication"}
	}

	head, err := g.run(ctx, dest, "rev-parse", "HEAD")
	if err != nil {
		return nil, &SourceError{Source: remote, Operation: "clone", Err: fmt.Errorf("resolving HEAD: %w", err), Hint: "the repository may be empty"}
	}
	return &Repository{Path: dest, Head: head}, nil
}

// OpenExisting opens the repository rooted at path without touching the
// network. A subdirectory of another repository is rejected.
func (g *GitProvider) OpenExisting(ctx context.Context, path string) (*Repository, error) {
	top, err := g.run(ctx, path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, &SourceError{Source: path, Operation: "open", Err: err}
	}
	if !samePath(top, path) {
		return nil, &SourceError{Source: path, Operation: "open", Err: fmt.Errorf("not a repository root (enclosing repository is %s)", top)}
	}

	head, err := g.run(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return nil, &SourceError{Source: path, Operation: "open", Err: fmt.Errorf("resolving HEAD: %w", err)}
	}
	return &Repository{Path: path, Head: head}, nil
}

// ResolveAndCheckout moves HEAD to ref. Lookup order: local branch, tag,
// origin's branch (a tracking local branch is created), then any object
// naming a commit, which is checked out detached and reported with an empty
// Ref. An empty ref leaves HEAD alone and reports the current branch.
func (g *GitProvider) ResolveAndCheckout(ctx context.Context, repo *Repository, ref string) (*Checkout, error) {
	if ref == "" {
		return &Checkout{Ref: g.currentBranch(ctx, repo.Path), Version: repo.Head}, nil
	}
	if strings.HasPrefix(ref, "-") {
		return nil, &SourceError{Source: repo.Path, Operation: "checkout", Err: fmt.Errorf("invalid reference '%s'", ref)}
	}

	var (
		args    []string
		matched = ref
	)
	switch {
	case g.exists(ctx, repo.Path, "refs/heads/"+ref):
		args = []string{"checkout", "--quiet", ref}
	case g.exists(ctx, repo.Path, "refs/tags/"+ref):
		args = []string{"checkout", "--quiet", "--detach", "refs/tags/" + ref}
	case g.exists(ctx, repo.Path, "refs/remotes/origin/"+ref):
		// Work on a real local branch rather than a remote ref.
		args = []string{"checkout", "--quiet", "-b", ref, "--track", "origin/" + ref}
	case g.exists(ctx, repo.Path, ref+"^{commit}"):
		args = []string{"checkout", "--quiet", "--detach", ref + "^{commit}"}
		matched = ""
	default:
		return nil, &SourceError{Source: repo.Path, Operation: "checkout", Err: fmt.Errorf("'%s': %w", ref, ErrRefNotFound), Hint: "check that the branch, tag or commit exists upstream"}
	}

	if _, err := g.run(ctx, repo.Path, args...); err != nil {
		return nil, &SourceError{Source: repo.Path, Operation: "checkout", Err: err}
	}

	head, err := g.run(ctx, repo.Path, "rev-parse", "HEAD")
	if err != nil {
		return nil, &SourceError{Source: repo.Path, Operation: "checkout", Err: fmt.Errorf("resolving HEAD: %w", err)}
	}
	repo.Head = head
	return &Checkout{Ref: matched, Version: head}, nil
}

// ListTags returns tag names in git's refname order.
func (g *GitProvider) ListTags(ctx context.Context, repo *Repository) ([]string, error) {
	out, err := g.run(ctx, repo.Path, "tag", "--list")
	if err != nil {
		return nil, &SourceError{Source: repo.Path, Operation: "list tags", Err: err}
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// currentBranch returns the checked-out branch name, or "" when detached.
func (g *GitProvider) currentBranch(ctx context.Context, dir string) string {
	name, err := g.run(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return ""
	}
	return name
}

func samePath(a, b string) bool {
	ra, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false
	}
	rb, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false
	}
	return filepath.Clean(ra) == filepath.Clean(rb)
}
