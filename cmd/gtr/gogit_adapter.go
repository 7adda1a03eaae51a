package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatcfg "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

func isLinkedWorktreeDir(dir string) bool {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return false
	}
	dotGit := filepath.Join(dir, ".git")
	info, err := os.Stat(dotGit)
	if err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(dotGit)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(string(data)), "gitdir:")
}

func openRepo(repoRoot string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// refExistsGoGit answers `git show-ref --verify <ref>` without a subprocess.
// handled is false when go-git cannot open the repository and the caller
// should ask the git binary instead.
func refExistsGoGit(repoRoot string, ref string) (exists bool, handled bool) {
	if isLinkedWorktreeDir(repoRoot) {
		// go-git linked-worktree support is incomplete; use the real git binary there.
		return false, false
	}
	repo, err := openRepo(repoRoot)
	if err != nil {
		return false, false
	}
	_, err = repo.Reference(plumbing.ReferenceName(ref), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, true
	}
	if err != nil {
		return false, false
	}
	return true, true
}

type ignoreRules struct {
	matcher gitignore.Matcher
}

// MatchDir reports whether a directory relative to the repository root is
// excluded from version control.
func (r *ignoreRules) MatchDir(relPath string) bool {
	rel := filepath.ToSlash(filepath.Clean(relPath))
	return r.matcher.Match(strings.Split(rel, "/"), true)
}

// loadIgnoreRules collects the patterns that apply to top-level entries of
// the repository: the core.excludesFile patterns, .git/info/exclude and the
// root .gitignore, in increasing priority. It returns nil when the repository
// does not have a regular .git directory.
func loadIgnoreRules(repoRoot string) *ignoreRules {
	info, err := os.Stat(filepath.Join(repoRoot, ".git"))
	if err != nil || !info.IsDir() {
		return nil
	}
	fs := osfs.New("/")
	var patterns []gitignore.Pattern
	if path := excludesFile(fs, repoRoot); path != "" {
		patterns = append(patterns, readIgnoreFile(fs, path)...)
	}
	patterns = append(patterns, readIgnoreFile(fs, filepath.Join(repoRoot, ".git", "info", "exclude"))...)
	patterns = append(patterns, readIgnoreFile(fs, filepath.Join(repoRoot, ".gitignore"))...)
	return &ignoreRules{matcher: gitignore.NewMatcher(patterns)}
}

// excludesFile resolves core.excludesFile like git: the most specific config
// file that sets it wins, otherwise $XDG_CONFIG_HOME/git/ignore.
func excludesFile(fs billy.Filesystem, repoRoot string) string {
	home := strings.TrimSpace(os.Getenv("HOME"))
	xdg := xdgConfigHome(home)
	candidates := []string{filepath.Join(repoRoot, ".git", "config")}
	if home != "" {
		candidates = append(candidates, filepath.Join(home, ".gitconfig"))
	}
	if xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "git", "config"))
	}
	candidates = append(candidates, systemGitConfig)

	for _, path := range candidates {
		if v := gitConfigValue(fs, path, "core", "excludesfile"); v != "" {
			return expandHome(home, v)
		}
	}
	if xdg == "" {
		return ""
	}
	return filepath.Join(xdg, "git", "ignore")
}

const systemGitConfig = "/etc/gitconfig"

func xdgConfigHome(home string) string {
	if v := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); v != "" {
		return v
	}
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config")
}

func gitConfigValue(fs billy.Filesystem, path string, section string, key string) string {
	f, err := fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	cfg := formatcfg.New()
	if err := formatcfg.NewDecoder(f).Decode(cfg); err != nil {
		return ""
	}
	return strings.TrimSpace(cfg.Section(section).Options.Get(key))
}

func expandHome(home string, path string) string {
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	}
	return path
}

func readIgnoreFile(fs billy.Filesystem, path string) []gitignore.Pattern {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns
}

// mainWorktreeRoot maps any checkout root (main or linked) to the root of the
// main worktree, i.e. the parent of the shared .git directory.
func mainWorktreeRoot(repoRoot string) (string, error) {
	commonDir, err := gitCommonDirForRepoRoot(repoRoot)
	if err != nil {
		return "", err
	}
	if filepath.Base(commonDir) != ".git" {
		return repoRoot, nil
	}
	return filepath.Dir(commonDir), nil
}

func gitCommonDirForRepoRoot(repoRoot string) (string, error) {
	repoRoot = strings.TrimSpace(repoRoot)
	if repoRoot == "" {
		return "", errNotInGitRepository
	}
	dotGit := filepath.Join(repoRoot, ".git")
	info, err := os.Stat(dotGit)
	if err == nil && info.IsDir() {
		return filepath.Abs(dotGit)
	}
	if err == nil && !info.IsDir() {
		return parseGitdirPointer(dotGit, repoRoot)
	}
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotInGitRepository
	}
	return "", err
}

func parseGitdirPointer(dotGitFile string, repoRoot string) (string, error) {
	data, err := os.ReadFile(dotGitFile)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(strings.ToLower(line), prefix) {
		return "", fmt.Errorf("invalid .git file format in %s", repoRoot)
	}
	target := strings.TrimSpace(line[len(prefix):])
	if target == "" {
		return "", fmt.Errorf("empty gitdir in %s", repoRoot)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoRoot, target)
	}
	target = filepath.Clean(target)
	sep := string(filepath.Separator) + "worktrees" + string(filepath.Separator)
	// The admin dir is <common-dir>/worktrees/<id>; the repo itself may live
	// under a directory that is also called "worktrees".
	if i := strings.LastIndex(target, sep); i > 0 {
		return filepath.Clean(target[:i]), nil
	}
	return target, nil
}
