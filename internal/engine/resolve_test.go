package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bianoble/ldh/internal/dependency"
	"github.com/bianoble/ldh/internal/settings"
	"github.com/bianoble/ldh/internal/source"
	"github.com/bianoble/ldh/internal/store"
)

const remoteA = "https://example.com/a.git"

func TestResolveExactTag(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindTag, "v1.2.0"))
	require.NoError(t, err)

	assert.True(t, out.Fetched)
	assert.Equal(t, []State{StateUnchecked, StateCloning, StateCheckingOut, StateResolved}, out.States)
	assert.Equal(t, dependency.LockedDependency{
		LocalPath:       env.path("a-v1.2.0"),
		ResolvedSource:  "git+" + remoteA + "#v1.2.0",
		ResolvedVersion: "c120",
	}, out.Dependency.Locked)
}

func TestResolveDefaultBranch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindDefault, ""))
	require.NoError(t, err)

	assert.Equal(t, env.path("a-latest"), out.Dependency.Locked.LocalPath)
	assert.Equal(t, "main", out.Dependency.Locked.ResolvedRef())
	assert.Equal(t, "c300", out.Dependency.Locked.ResolvedVersion)
	assert.Equal(t, 1, env.provider.count("checkout"))
}

func TestResolveExactCommit(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindCommit, "c100"))
	require.NoError(t, err)

	assert.Equal(t, env.path("a-c100"), out.Dependency.Locked.LocalPath)
	assert.Equal(t, "c100", out.Dependency.Locked.ResolvedVersion)
	assert.Equal(t, "git+"+remoteA+"#c100", out.Dependency.Locked.ResolvedSource, "no symbolic ref falls back to the version id")
}

func TestResolveBranchWithSlash(t *testing.T) {
	env := newTestEnv(t)
	r := env.provider.standardRemote(remoteA)
	r.refs["feature/x"] = "cfx"

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindBranch, "feature/x"))
	require.NoError(t, err)
	assert.Equal(t, env.path("a-feature_x"), out.Dependency.Locked.LocalPath)
	assert.Equal(t, "feature/x", out.Dependency.Locked.ResolvedRef())
}

func TestResolveRangeFirstMatch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, "^1.0.0"))
	require.NoError(t, err)

	assert.Equal(t, "v1.0.0", out.Dependency.Locked.ResolvedRef(), "first tag in enumeration order wins")
	assert.Equal(t, "c100", out.Dependency.Locked.ResolvedVersion)
	assert.Equal(t, env.path("a-v1.0.0"), out.Dependency.Locked.LocalPath)
	assert.Equal(t, []State{StateUnchecked, StateCloning, StateCheckingOut, StateRenaming, StateResolved}, out.States)
	assert.NoDirExists(t, env.path("a-temp"))
	assert.DirExists(t, env.path("a-v1.0.0"))
	assert.False(t, out.Reused)
}

func TestResolveRangeHighestPolicy(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)
	env.resolver.RangePolicy = settings.RangeHighest

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, "^1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", out.Dependency.Locked.ResolvedRef())
	assert.Equal(t, env.path("a-v1.2.0"), out.Dependency.Locked.LocalPath)
}

func TestResolveRangeReusesExistingFinalPath(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	final := env.path("a-v1.0.0")
	require.NoError(t, writeFakeClone(final, remoteA, "c100"))
	require.NoError(t, os.WriteFile(filepath.Join(final, "keep"), []byte("old"), 0644))

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, "~1.0"))
	require.NoError(t, err)

	assert.True(t, out.Reused)
	assert.Equal(t, final, out.Dependency.Locked.LocalPath)
	assert.Equal(t, "c100", out.Dependency.Locked.ResolvedVersion)
	assert.NoDirExists(t, env.path("a-temp"), "temporary clone is deleted")
	assert.FileExists(t, filepath.Join(final, "keep"), "existing directory is kept")
}

func TestResolveRangeNoMatch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, ">=3.0.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatchingTag))

	var de DependencyError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "a", de.Dependency)
	assert.Equal(t, "checkout", de.Operation)

	assert.Equal(t, StateFailed, out.State())
	assert.False(t, out.Dependency.Locked.HasValue())
	assert.NoDirExists(t, env.path("a-temp"), "failed clone is cleaned up for the next run")
}

func TestResolveCloneFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.cloneErr[remoteA] = fmt.Errorf("could not resolve host")

	dep := gitDep("a", remoteA, dependency.KindTag, "v1.0.0")
	dep.Locked = dependency.LockedDependency{LocalPath: env.path("gone"), ResolvedSource: "git+" + remoteA + "#v1.0.0", ResolvedVersion: "c100"}

	out, err := env.resolver.Resolve(context.Background(), dep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not resolve host")

	var se *source.SourceError
	assert.True(t, errors.As(err, &se))
	assert.False(t, out.Dependency.Locked.HasValue(), "locked side is cleared on failure")
	assert.Equal(t, StateFailed, out.State())
}

func TestResolveUnknownRef(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	_, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindTag, "v9.9.9"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrRefNotFound))
	assert.NoDirExists(t, env.path("a-v9.9.9"))
}

func TestResolveUnknownSourceKind(t *testing.T) {
	env := newTestEnv(t)
	dep := dependency.Dependency{Name: "a", Input: dependency.InputDependency{Selector: dependency.FromString(dependency.KindTag, "v1")}}

	_, err := env.resolver.Resolve(context.Background(), dep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source kind")
	assert.Empty(t, env.provider.calls)
}

func TestResolveTwiceDoesNotFetch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)
	ctx := context.Background()

	for _, dep := range []dependency.Dependency{
		gitDep("tagged", remoteA, dependency.KindTag, "v1.2.0"),
		gitDep("ranged", remoteA, dependency.KindSemverRange, "^1.0.0"),
		gitDep("latest", remoteA, dependency.KindDefault, ""),
	} {
		first, err := env.resolver.Resolve(ctx, dep)
		require.NoError(t, err)

		clones, tags := env.provider.count("clone"), env.provider.count("tags")
		second, err := env.resolver.Resolve(ctx, first.Dependency)
		require.NoError(t, err)

		assert.Equal(t, clones, env.provider.count("clone"), dep.Name)
		assert.Equal(t, tags, env.provider.count("tags"), dep.Name)
		assert.False(t, second.Fetched)
		assert.Equal(t, []State{StateUnchecked, StateSkipped, StateResolved}, second.States)
		assert.Equal(t, first.Dependency.Locked, second.Dependency.Locked, dep.Name)
	}
}

func TestResolveExistingDirectoryWithoutLock(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)
	ctx := context.Background()

	require.NoError(t, writeFakeClone(env.path("a-v1.2.0"), remoteA, "c120"))
	out, err := env.resolver.Resolve(ctx, gitDep("a", remoteA, dependency.KindTag, "v1.2.0"))
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", out.Dependency.Locked.ResolvedRef())
	assert.Equal(t, "c120", out.Dependency.Locked.ResolvedVersion)

	require.NoError(t, writeFakeClone(env.path("b-latest"), remoteA, "c300"))
	out, err = env.resolver.Resolve(ctx, gitDep("b", remoteA, dependency.KindDefault, ""))
	require.NoError(t, err)
	assert.Equal(t, "c300", out.Dependency.Locked.ResolvedRef(), "the latest sentinel is replaced by the version id")

	assert.Equal(t, 0, env.provider.count("clone"))
}

func TestResolveExistingReplacesLatestSentinel(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	path := env.path("a-latest")
	require.NoError(t, writeFakeClone(path, remoteA, "c300"))
	dep := gitDep("a", remoteA, dependency.KindDefault, "")
	dep.Locked = dependency.LockedDependency{LocalPath: path, ResolvedSource: "git+" + remoteA + "#latest", ResolvedVersion: "c300"}

	out, err := env.resolver.Resolve(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, "git+"+remoteA+"#c300", out.Dependency.Locked.ResolvedSource)
}

func TestResolveExistingRangeWithoutRecordedTag(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	path := env.path("a-v1.0.0")
	require.NoError(t, writeFakeClone(path, remoteA, "c100"))
	dep := gitDep("a", remoteA, dependency.KindSemverRange, "^1.0.0")
	dep.Locked = dependency.LockedDependency{LocalPath: path}

	out, err := env.resolver.Resolve(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, 1, env.provider.count("tags"))
	assert.Equal(t, "v1.0.0", out.Dependency.Locked.ResolvedRef())
	assert.Equal(t, path, out.Dependency.Locked.LocalPath)
	assert.Equal(t, 0, env.provider.count("clone"))
}

func TestResolveFinishesInterruptedRange(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	require.NoError(t, writeFakeClone(env.path("a-temp"), remoteA, "c300"))

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, "^1.0.0"))
	require.NoError(t, err)

	assert.False(t, out.Fetched)
	assert.Equal(t, env.path("a-v1.0.0"), out.Dependency.Locked.LocalPath)
	assert.Equal(t, "c100", out.Dependency.Locked.ResolvedVersion)
	assert.NoDirExists(t, env.path("a-temp"))
	assert.Equal(t, 0, env.provider.count("clone"))
}

func TestResolveInterruptedRangeWithoutMatch(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	require.NoError(t, writeFakeClone(env.path("a-temp"), remoteA, "c300"))

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindSemverRange, "^3.0.0"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatchingTag)

	assert.Equal(t, StateFailed, out.State())
	assert.False(t, out.Dependency.Locked.HasValue())
	assert.NoDirExists(t, env.path("a-temp"), "leftover clone is dropped so the next run starts over")
	assert.Equal(t, 0, env.provider.count("clone"))
}

func TestResolveOpenFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.standardRemote(remoteA)

	// A directory that is not a clone.
	require.NoError(t, os.MkdirAll(env.path("a-v1.0.0"), 0755))

	out, err := env.resolver.Resolve(context.Background(), gitDep("a", remoteA, dependency.KindTag, "v1.0.0"))
	require.Error(t, err)
	var de DependencyError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "open", de.Operation)
	assert.True(t, store.IsDir(env.path("a-v1.0.0")), "an existing directory is never deleted on failure")
	assert.False(t, out.Dependency.Locked.HasValue())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "checking-out", StateCheckingOut.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, StateUnchecked, (&Outcome{}).State())
}
