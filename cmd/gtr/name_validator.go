package main

import "strings"

// validateWorktreeName rejects names that could be read as a flag by git or
// escape the base directory once joined into a path.
func validateWorktreeName(name string) error {
	return validateSegment("worktree name", name, true)
}

// validateBranchPrefix applies the same rules to a per-call prefix override,
// except that slashes are allowed ("fix/", "users/me/").
func validateBranchPrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return validateSegment("branch prefix", prefix, false)
}

func validateSegment(kind string, value string, rejectSlash bool) error {
	switch {
	case value == "":
		return &InvalidNameError{Kind: kind, Name: value, Reason: nameEmpty}
	case strings.HasPrefix(value, "-"):
		return &InvalidNameError{Kind: kind, Name: value, Reason: nameLeadingDash}
	case strings.Contains(value, ".."), strings.Contains(value, `\`):
		return &InvalidNameError{Kind: kind, Name: value, Reason: nameUnsafeSequence}
	case rejectSlash && strings.Contains(value, "/"):
		return &InvalidNameError{Kind: kind, Name: value, Reason: nameUnsafeSequence}
	}
	return nil
}
