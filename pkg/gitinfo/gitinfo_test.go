package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepoWithCommit creates a repository with a single commit on the
// default branch and returns its path.
func initRepoWithCommit(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("demo\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &git.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir
}

func TestResolve(t *testing.T) {
	t.Run("repository with a commit", func(t *testing.T) {
		dir := initRepoWithCommit(t)

		info, err := Resolve(dir)
		require.NoError(t, err)
		assert.Len(t, info.CommitHash, 40)
		assert.NotEmpty(t, info.BranchName)
	})

	t.Run("subdirectory resolves through dot git detection", func(t *testing.T) {
		dir := initRepoWithCommit(t)
		sub := filepath.Join(dir, "pkg")
		require.NoError(t, os.MkdirAll(sub, 0o755))

		info, err := Resolve(sub)
		require.NoError(t, err)
		assert.Len(t, info.CommitHash, 40)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := Resolve(t.TempDir())
		assert.Error(t, err)
	})
}

func TestResolveOrEmpty(t *testing.T) {
	info := ResolveOrEmpty(t.TempDir(), logrus.New())
	require.NotNil(t, info)
	assert.Empty(t, info.CommitHash)
	assert.Empty(t, info.BranchName)
}
