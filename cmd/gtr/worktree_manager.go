package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5/plumbing"
)

type WorktreeInfo struct {
	Path   string
	Head   string
	Branch string
	Bare   bool
}

// WorktreeListing is git's own `worktree list` output, untouched, together
// with the base path it was resolved against.
type WorktreeListing struct {
	BasePath string
	Output   string
}

// gitClient is everything the manager asks of git.
type gitClient interface {
	refChecker
	RepoRoot(ctx context.Context, dir string) (string, error)
	AddWorktree(ctx context.Context, repoRoot string, path string, branch string, create bool) error
	RemoveWorktree(ctx context.Context, repoRoot string, path string, force bool) error
	DeleteBranch(ctx context.Context, repoRoot string, branch string, force bool) error
	WorktreeList(ctx context.Context, repoRoot string) (string, error)
	Worktrees(ctx context.Context, repoRoot string) ([]WorktreeInfo, error)
	ShortStatus(ctx context.Context, path string) (string, error)
	IsIgnored(ctx context.Context, repoRoot string, relPath string) bool
}

type toolLauncher interface {
	RunInWorktree(worktreePath string, command string, args []string) error
}

type WorktreeManager struct {
	git      gitClient
	repoRoot string
	cfg      Config
	logger   *log.Logger
}

func NewWorktreeManager(git gitClient, repoRoot string, cfg Config, logger *log.Logger) *WorktreeManager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WorktreeManager{git: git, repoRoot: repoRoot, cfg: cfg, logger: logger}
}

// WorktreePath is absolute: git runs in the repository root while the
// existence checks here run in the caller's directory, and a relative base
// path must mean the same place to both.
func (m *WorktreeManager) WorktreePath(name string) string {
	return filepath.Join(m.absBasePath(), name)
}

func (m *WorktreeManager) absBasePath() string {
	abs, err := filepath.Abs(m.cfg.BasePath)
	if err != nil {
		return m.cfg.BasePath
	}
	return abs
}

func (m *WorktreeManager) Exists(name string) bool {
	exists, err := worktreePathExists(m.WorktreePath(name))
	return err == nil && exists
}

// Create adds a worktree at <base>/<name>. prefixOverride replaces the
// default branch prefix for this call only. An existing path or checked-out
// branch is reported by git; nothing is pre-checked here.
func (m *WorktreeManager) Create(ctx context.Context, name string, prefixOverride string) (WorktreeInfo, error) {
	if err := validateWorktreeName(name); err != nil {
		return WorktreeInfo{}, err
	}
	prefix := m.cfg.BranchPrefix
	if prefixOverride != "" {
		prefix = prefixOverride
	}
	if err := validateBranchPrefix(prefix); err != nil {
		return WorktreeInfo{}, err
	}

	basePath := m.absBasePath()
	target := resolveBranch(ctx, m.git, m.repoRoot, basePath, name, prefix)
	m.logger.Debug("resolved branch", "name", name, "branch", target.Branch, "mode", target.Mode)

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return WorktreeInfo{}, fmt.Errorf("create base path: %w", err)
	}
	if err := m.git.AddWorktree(ctx, m.repoRoot, target.Path, target.Branch, target.Mode == branchCreateNew); err != nil {
		return WorktreeInfo{}, err
	}
	m.propagateAuxDirs(ctx, target.Path)
	return WorktreeInfo{Path: target.Path, Branch: target.Branch}, nil
}

// Remove processes names in order and stops at the first failure. It
// returns the names removed before that point.
func (m *WorktreeManager) Remove(ctx context.Context, names []string, force bool) ([]string, error) {
	removed := make([]string, 0, len(names))
	for _, name := range names {
		if err := m.remove(ctx, name, force); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (m *WorktreeManager) remove(ctx context.Context, name string, force bool) error {
	if err := validateWorktreeName(name); err != nil {
		return err
	}
	path := m.WorktreePath(name)

	if force {
		// Forced removal always continues to branch cleanup, so git's
		// verdict on the worktree itself is intentionally dropped.
		_ = m.git.RemoveWorktree(ctx, m.repoRoot, path, true)
		m.deleteBranches(ctx, name, true)
		return nil
	}

	if err := m.git.RemoveWorktree(ctx, m.repoRoot, path, false); err != nil {
		if status, statusErr := m.git.ShortStatus(ctx, path); statusErr == nil && strings.TrimSpace(status) != "" {
			return &DirtyWorktreeError{Name: name, Path: path, Status: status}
		}
		return err
	}
	m.deleteBranches(ctx, name, false)
	return nil
}

// deleteBranches removes the prefixed and bare branch for name. Failures are
// never returned: the branch may already be gone, be checked out elsewhere,
// or (without force) hold unmerged commits. The last case is worth a warning.
func (m *WorktreeManager) deleteBranches(ctx context.Context, name string, force bool) {
	for _, branch := range cleanupBranches(m.cfg.BranchPrefix, name) {
		existed := !force && m.git.RefExists(ctx, m.repoRoot, plumbing.NewBranchReferenceName(branch).String())
		err := m.git.DeleteBranch(ctx, m.repoRoot, branch, force)
		if err != nil && existed {
			m.logger.Warn("branch kept", "branch", branch, "err", err, "hint", "git branch -D "+branch)
		}
	}
}

func cleanupBranches(prefix string, name string) []string {
	prefixed := prefix + name
	if prefixed == name {
		return []string{name}
	}
	return []string{prefixed, name}
}

// Switch resolves the directory to change into: <base>/<name>, or the main
// worktree when name is empty.
func (m *WorktreeManager) Switch(ctx context.Context, name string) (string, error) {
	if name == "" {
		return m.MainWorktree(ctx)
	}
	if err := validateWorktreeName(name); err != nil {
		return "", err
	}
	path := m.WorktreePath(name)
	exists, err := worktreePathExists(path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", &PathNotFoundError{Path: path}
	}
	return path, nil
}

// MainWorktree is the first entry git reports in its worktree list.
func (m *WorktreeManager) MainWorktree(ctx context.Context) (string, error) {
	worktrees, err := m.git.Worktrees(ctx, m.repoRoot)
	if err != nil || len(worktrees) == 0 || strings.TrimSpace(worktrees[0].Path) == "" {
		return "", &PathNotFoundError{Path: "main worktree"}
	}
	return worktrees[0].Path, nil
}

func (m *WorktreeManager) List(ctx context.Context) (WorktreeListing, error) {
	out, err := m.git.WorktreeList(ctx, m.repoRoot)
	return WorktreeListing{BasePath: m.cfg.BasePath, Output: out}, err
}

// Launch opens the interactive tool in the named worktree, offering to
// create the worktree first. It returns false when the user declined.
func (m *WorktreeManager) Launch(ctx context.Context, name string, args []string, confirm confirmFunc, launcher toolLauncher) (bool, error) {
	if err := validateWorktreeName(name); err != nil {
		return false, err
	}
	path := m.WorktreePath(name)
	if !m.Exists(name) {
		ok, err := confirm(fmt.Sprintf("Worktree %s does not exist. Create it?", name), path)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if _, err := m.Create(ctx, name, ""); err != nil {
			return false, err
		}
	}
	return true, launcher.RunInWorktree(path, m.cfg.AgentCommand, args)
}

func worktreePathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
