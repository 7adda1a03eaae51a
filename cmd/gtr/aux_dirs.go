package main

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// auxDirAllowList names the local-only directories carried from the main
// checkout into new worktrees, provided git ignores them there.
var auxDirAllowList = []string{
	".claude",
	".cursor",
	".vscode",
	".idea",
	".secrets",
}

// propagateAuxDirs is best-effort: a failed copy is logged and the next
// directory is tried.
func (m *WorktreeManager) propagateAuxDirs(ctx context.Context, worktreePath string) {
	for _, name := range auxDirAllowList {
		src := filepath.Join(m.repoRoot, name)
		info, err := os.Stat(src)
		if err != nil || !info.IsDir() {
			continue
		}
		if !m.git.IsIgnored(ctx, m.repoRoot, name) {
			m.logger.Debug("skipping tracked directory", "dir", name)
			continue
		}
		if err := copyDir(src, filepath.Join(worktreePath, name)); err != nil {
			m.logger.Warn("could not copy directory into worktree", "dir", name, "err", err)
			continue
		}
		m.logger.Debug("copied directory into worktree", "dir", name, "worktree", worktreePath)
	}
}

func copyDir(src string, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
}

func copyFile(src string, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
