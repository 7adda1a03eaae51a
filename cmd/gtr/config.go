package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultBranchPrefix = "feat/"
	defaultAgentCommand = "claude"
	autoDetectDirName   = "worktrees"
)

type basePathSource int

const (
	sourceDefault basePathSource = iota
	sourceEnv
	sourceConfigFile
	sourceAutoDetected
)

func (s basePathSource) String() string {
	switch s {
	case sourceEnv:
		return "env (" + envBasePath + ")"
	case sourceConfigFile:
		return "config file"
	case sourceAutoDetected:
		return "auto-detected"
	default:
		return "default"
	}
}

// settings holds everything gtr reads from the process environment. It is
// loaded once per invocation and never re-read afterwards.
type settings struct {
	EnvBasePath  string
	BranchPrefix string
	AgentCommand string
	Home         string
	ConfigPath   string
}

// Config is the resolved configuration handed to the worktree manager.
type Config struct {
	BasePath       string
	BasePathSource basePathSource
	BranchPrefix   string
	AgentCommand   string
}

func loadSettings() (settings, error) {
	home, err := homeDir()
	if err != nil {
		return settings{}, err
	}
	s := settings{
		BranchPrefix: envOrDefault(envBranchPrefix, defaultBranchPrefix),
		AgentCommand: envOrDefault(envAgentCommand, defaultAgentCommand),
		Home:         home,
		ConfigPath:   configPathForHome(home),
	}
	if v := os.Getenv(envBasePath); strings.TrimSpace(v) != "" {
		s.EnvBasePath = v
	}
	return s, nil
}

func resolveConfig(s settings, repoRoot string) Config {
	basePath, source := resolveBasePath(s, repoRoot)
	return Config{
		BasePath:       basePath,
		BasePathSource: source,
		BranchPrefix:   s.BranchPrefix,
		AgentCommand:   s.AgentCommand,
	}
}

// resolveBasePath picks the worktree base directory. The first match wins:
// env override, persisted config file, <repo-root>/../worktrees when it
// exists, then ~/code/worktrees. Only the sibling lookup touches the disk.
func resolveBasePath(s settings, repoRoot string) (string, basePathSource) {
	if s.EnvBasePath != "" {
		return s.EnvBasePath, sourceEnv
	}
	if persisted, ok := readPersistedBasePath(s.ConfigPath); ok {
		return persisted, sourceConfigFile
	}
	if candidate, ok := siblingWorktreesDir(repoRoot); ok {
		return candidate, sourceAutoDetected
	}
	return defaultBasePath(s.Home), sourceDefault
}

func siblingWorktreesDir(repoRoot string) (string, bool) {
	repoRoot = strings.TrimSpace(repoRoot)
	if repoRoot == "" {
		return "", false
	}
	candidate := filepath.Join(filepath.Dir(repoRoot), autoDetectDirName)
	info, err := os.Stat(candidate)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return candidate, true
}

func defaultBasePath(home string) string {
	return filepath.Join(home, "code", "worktrees")
}

func readPersistedBasePath(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

// savePersistedBasePath overwrites the config file with a single line.
func savePersistedBasePath(path string, basePath string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(basePath+"\n"), 0o644)
}

// normalizeBasePath expands a leading ~ and makes the path absolute so the
// persisted value does not depend on the directory `gtr config` ran in.
func normalizeBasePath(home string, raw string) (string, error) {
	path := strings.TrimSpace(raw)
	if path == "" {
		return "", errors.New("base path required")
	}
	switch {
	case path == "~":
		path = home
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}

func configPathForHome(home string) string {
	return filepath.Join(home, ".config", "gtr", "config")
}

func homeDir() (string, error) {
	home := os.Getenv("HOME")
	if strings.TrimSpace(home) == "" {
		return "", errors.New("HOME not set")
	}
	return home, nil
}
