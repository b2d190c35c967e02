package engine

import "fmt"

// ResetScope defines how far a node-triggered reset reaches.
type ResetScope string

const (
	// ResetScopeBranch (default): a non-input node reset clears every active
	// state under the same first-layer parent and restarts that branch.
	// Input-node resets only restart the branch when no sibling is active.
	ResetScopeBranch ResetScope = "branch"

	// ResetScopeNode: only the source node leaves the active set. Siblings
	// are never removed; the branch restarts only once it has no active
	// state left.
	ResetScopeNode ResetScope = "node"
)

// ValidateResetScope checks if scope is branch, node or empty.
func ValidateResetScope(scope string) error {
	switch ResetScope(scope) {
	case ResetScopeBranch, ResetScopeNode, "":
		return nil
	default:
		return fmt.Errorf("invalid reset scope %q: must be branch or node", scope)
	}
}

// NormalizeResetScope maps the empty scope to branch.
func NormalizeResetScope(scope string) ResetScope {
	if scope == "" {
		return ResetScopeBranch
	}
	return ResetScope(scope)
}
