package main

import (
	"os"
	"strings"
)

const (
	envBasePath     = "GTR_BASE_PATH"
	envBranchPrefix = "GTR_BRANCH_PREFIX"
	envAgentCommand = "GTR_AGENT_COMMAND"
	envDebug        = "GTR_DEBUG"
)

func envFlagEnabled(name string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func debugEnabled() bool {
	return envFlagEnabled(envDebug)
}

func envOrDefault(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}
