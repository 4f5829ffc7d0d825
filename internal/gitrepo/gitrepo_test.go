package gitrepo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gitConfig = `[core]
	repositoryformatversion = 0
	filemode = true
	bare = false
	logallrefupdates = true
[remote "origin"]
	url = git@github.com:user/repo.git
	fetch = +refs/heads/*:refs/remotes/origin/*
[branch "master"]
	remote = origin
	merge = refs/heads/master
`

func gitDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".git")
	require.NoError(t, os.Mkdir(dir, 0o755))
	return dir
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMissingDirAnswersEmpty(t *testing.T) {
	t.Parallel()

	repo := Open(filepath.Join(t.TempDir(), ".git"))
	assert.Empty(t, repo.path)
	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Empty(t, repo.Branch())
}

func TestMissingConfigAndHead(t *testing.T) {
	t.Parallel()

	repo := Open(gitDir(t))
	assert.NotEmpty(t, repo.path)
	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.Empty(t, repo.Branch())
}

func TestRemoteURL(t *testing.T) {
	t.Parallel()

	dir := gitDir(t)
	write(t, dir, "config", gitConfig)
	repo := Open(dir)

	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:user/repo.git", url)

	url, err = repo.RemoteURL("")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:user/repo.git", url)

	url, err = repo.RemoteURL("upstream")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestRemoteURLWithoutRemoteSection(t *testing.T) {
	t.Parallel()

	dir := gitDir(t)
	noRemote := strings.Replace(gitConfig, "[remote \"origin\"]\n\turl = git@github.com:user/repo.git\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n", "", 1)
	write(t, dir, "config", noRemote)

	url, err := Open(dir).RemoteURL("origin")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestInvalidConfigFailsLoudly(t *testing.T) {
	t.Parallel()

	dir := gitDir(t)
	write(t, dir, "config", "invalid")

	_, err := Open(dir).RemoteURL("origin")
	assert.Error(t, err)
}

func TestBranch(t *testing.T) {
	t.Parallel()

	dir := gitDir(t)
	write(t, dir, "HEAD", "ref: refs/heads/feature/docs\n")
	assert.Equal(t, "feature/docs", Open(dir).Branch())

	write(t, dir, "HEAD", "invalid\n")
	assert.Empty(t, Open(dir).Branch())

	// Detached HEAD
	write(t, dir, "HEAD", "0123456789abcdef0123456789abcdef01234567\n")
	assert.Empty(t, Open(dir).Branch())
}
