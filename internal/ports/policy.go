package ports

import "minapt/internal/types"

// HoldPolicyPort decides which installed packages upgrade leaves alone.
type HoldPolicyPort interface {
	IsHeld(pkg types.Package) bool
}
