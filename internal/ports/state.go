package ports

import "minapt/internal/types"

// SystemStatePort reads dpkg and apt bookkeeping files.
type SystemStatePort interface {
	ReadStatus() ([]types.Package, error)
	ReadExtendedStates() ([]types.ExtendedState, error)
	MarkAutoInstalled(states []types.ExtendedState) error
}
