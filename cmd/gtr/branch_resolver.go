package main

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
)

type branchMode int

const (
	// branchCheckout reuses <prefix><name>.
	branchCheckout branchMode = iota
	// branchCheckoutBare reuses an unprefixed <name>.
	branchCheckoutBare
	// branchCreateNew creates <prefix><name>.
	branchCreateNew
)

func (m branchMode) String() string {
	switch m {
	case branchCheckout:
		return "checkout"
	case branchCheckoutBare:
		return "checkout-bare"
	default:
		return "create"
	}
}

type branchTarget struct {
	Path   string
	Branch string
	Mode   branchMode
}

type refChecker interface {
	RefExists(ctx context.Context, repoRoot string, ref string) bool
}

// resolveBranch prefers the prefixed branch, then a bare branch of the same
// name, and only creates <prefix><name> when neither exists. Refs are
// queried on every call.
func resolveBranch(ctx context.Context, refs refChecker, repoRoot string, basePath string, name string, prefix string) branchTarget {
	target := branchTarget{Path: filepath.Join(basePath, name)}
	prefixed := prefix + name
	switch {
	case refs.RefExists(ctx, repoRoot, plumbing.NewBranchReferenceName(prefixed).String()):
		target.Branch = prefixed
		target.Mode = branchCheckout
	case refs.RefExists(ctx, repoRoot, plumbing.NewBranchReferenceName(name).String()):
		target.Branch = name
		target.Mode = branchCheckoutBare
	default:
		target.Branch = prefixed
		target.Mode = branchCreateNew
	}
	return target
}
