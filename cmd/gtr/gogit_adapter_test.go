package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one commit on master.
func initRepo(t *testing.T, dir string) (*git.Repository, plumbing.Hash) {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "gtr", Email: "gtr@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return repo, hash
}

func TestRefExistsGoGit(t *testing.T) {
	dir := t.TempDir()
	repo, hash := initRepo(t, dir)
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName("feat/auth"), hash)
	require.NoError(t, repo.Storer.SetReference(ref))

	exists, handled := refExistsGoGit(dir, "refs/heads/feat/auth")
	assert.True(t, handled)
	assert.True(t, exists)

	exists, handled = refExistsGoGit(dir, "refs/heads/auth")
	assert.True(t, handled)
	assert.False(t, exists)
}

func TestRefExistsGoGit_NotARepository(t *testing.T) {
	_, handled := refExistsGoGit(t.TempDir(), "refs/heads/main")
	assert.False(t, handled, "the git binary should get a chance to answer")
}

func TestRefExistsGoGit_LinkedWorktreeFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /src/repo/.git/worktrees/x\n"), 0o644))
	_, handled := refExistsGoGit(dir, "refs/heads/main")
	assert.False(t, handled)
}

func TestLoadIgnoreRules(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	dir := t.TempDir()
	initRepo(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("# local tooling\n.claude/\n/.secrets\n\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "info"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "info", "exclude"), []byte(".idea\n"), 0o644))

	rules := loadIgnoreRules(dir)
	require.NotNil(t, rules)
	assert.True(t, rules.MatchDir(".claude"))
	assert.True(t, rules.MatchDir(".secrets"))
	assert.True(t, rules.MatchDir(".idea"))
	assert.False(t, rules.MatchDir(".vscode"))
}

func TestLoadIgnoreRules_NegationInGitignoreWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	dir := t.TempDir()
	initRepo(t, dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "info"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "info", "exclude"), []byte(".vscode/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("!.vscode/\n"), 0o644))

	rules := loadIgnoreRules(dir)
	require.NotNil(t, rules)
	assert.False(t, rules.MatchDir(".vscode"))
}

func TestLoadIgnoreRules_DefaultGlobalIgnoreFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "git", "ignore"), []byte(".claude/\n.idea\n"), 0o644))
	dir := t.TempDir()
	initRepo(t, dir)

	rules := loadIgnoreRules(dir)
	require.NotNil(t, rules)
	assert.True(t, rules.MatchDir(".claude"))
	assert.True(t, rules.MatchDir(".idea"))
	assert.False(t, rules.MatchDir(".vscode"))
}

func TestLoadIgnoreRules_XDGConfigHome(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "git", "ignore"), []byte(".cursor/\n"), 0o644))
	dir := t.TempDir()
	initRepo(t, dir)

	assert.True(t, loadIgnoreRules(dir).MatchDir(".cursor"))
}

func TestLoadIgnoreRules_ExcludesFileFromConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "git", "ignore"), []byte(".idea\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "git", "config"), []byte("[core]\n\texcludesFile = ~/global-ignore\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "global-ignore"), []byte(".secrets/\n"), 0o644))
	dir := t.TempDir()
	initRepo(t, dir)

	rules := loadIgnoreRules(dir)
	require.NotNil(t, rules)
	assert.True(t, rules.MatchDir(".secrets"))
	assert.False(t, rules.MatchDir(".idea"), "the default file is not read once excludesFile is set")

	require.NoError(t, os.WriteFile(filepath.Join(home, ".gitconfig"), []byte("[core]\n\texcludesfile = "+filepath.Join(home, "other-ignore")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "other-ignore"), []byte(".vscode/\n"), 0o644))
	rules = loadIgnoreRules(dir)
	assert.True(t, rules.MatchDir(".vscode"), "~/.gitconfig overrides the XDG config")
	assert.False(t, rules.MatchDir(".secrets"))
}

func TestIsIgnored_GlobalIgnoreFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".config", "git", "ignore"), []byte(".claude/\n"), 0o644))
	dir := t.TempDir()
	initRepo(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".claude"), 0o755))

	g := &gitCLI{bin: "git", logger: newLogger(io.Discard, false), ignoreRules: map[string]*ignoreRules{}}
	assert.True(t, g.IsIgnored(context.Background(), dir, ".claude"))
	assert.False(t, g.IsIgnored(context.Background(), dir, ".vscode"))
}

func TestLoadIgnoreRules_NoGitDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: /elsewhere\n"), 0o644))
	assert.Nil(t, loadIgnoreRules(dir))
}

func TestMainWorktreeRoot(t *testing.T) {
	parent := t.TempDir()
	mainRoot := filepath.Join(parent, "repo")
	require.NoError(t, os.MkdirAll(mainRoot, 0o755))
	initRepo(t, mainRoot)

	got, err := mainWorktreeRoot(mainRoot)
	require.NoError(t, err)
	assert.Equal(t, mainRoot, got)

	linked := filepath.Join(parent, "worktrees", "auth")
	admin := filepath.Join(mainRoot, ".git", "worktrees", "auth")
	require.NoError(t, os.MkdirAll(linked, 0o755))
	require.NoError(t, os.MkdirAll(admin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(linked, ".git"), []byte("gitdir: "+admin+"\n"), 0o644))

	got, err = mainWorktreeRoot(linked)
	require.NoError(t, err)
	assert.Equal(t, mainRoot, got)
}

func TestMainWorktreeRoot_NotARepository(t *testing.T) {
	_, err := mainWorktreeRoot(t.TempDir())
	assert.ErrorIs(t, err, errNotInGitRepository)
}

func TestParseGitdirPointer_RepoUnderWorktreesDir(t *testing.T) {
	root := t.TempDir()
	linked := filepath.Join(root, "wt")
	require.NoError(t, os.MkdirAll(linked, 0o755))
	admin := filepath.Join(root, "worktrees", "repo", ".git", "worktrees", "auth")
	dotGit := filepath.Join(linked, ".git")
	require.NoError(t, os.WriteFile(dotGit, []byte("gitdir: "+admin), 0o644))

	got, err := parseGitdirPointer(dotGit, linked)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "worktrees", "repo", ".git"), got)
}

func TestParseGitdirPointer_Relative(t *testing.T) {
	root := t.TempDir()
	linked := filepath.Join(root, "wt")
	require.NoError(t, os.MkdirAll(linked, 0o755))
	dotGit := filepath.Join(linked, ".git")
	require.NoError(t, os.WriteFile(dotGit, []byte("gitdir: ../repo/.git/worktrees/wt\n"), 0o644))

	got, err := parseGitdirPointer(dotGit, linked)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "repo", ".git"), got)
}

func TestParseGitdirPointer_Invalid(t *testing.T) {
	dir := t.TempDir()
	dotGit := filepath.Join(dir, ".git")
	require.NoError(t, os.WriteFile(dotGit, []byte("nonsense"), 0o644))
	_, err := parseGitdirPointer(dotGit, dir)
	assert.Error(t, err)
}
