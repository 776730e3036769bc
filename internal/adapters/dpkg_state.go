package adapters

import (
	"os"
	"path/filepath"

	"minapt/internal/core"
	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

// DpkgStateAdapter reads the dpkg status file and the apt extended_states
// files. ExtendedPaths are concatenated in order; the first one is the
// local override file that MarkAutoInstalled writes to.
type DpkgStateAdapter struct {
	StatusPath    string
	ExtendedPaths []string
}

func NewDpkgStateAdapter(statusPath string, extendedPaths []string) DpkgStateAdapter {
	return DpkgStateAdapter{
		StatusPath:    statusPath,
		ExtendedPaths: extendedPaths,
	}
}

func (a DpkgStateAdapter) ReadStatus() ([]types.Package, error) {
	data, err := os.ReadFile(a.StatusPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.MissingFile("dpkg status file not found: "+a.StatusPath, err)
		}
		return nil, shared.IOFailure("failed to read dpkg status file "+a.StatusPath, err)
	}
	return core.ParseControl(string(data), filepath.Base(a.StatusPath))
}

// ReadExtendedStates concatenates every extended_states file. A missing
// file contributes nothing.
func (a DpkgStateAdapter) ReadExtendedStates() ([]types.ExtendedState, error) {
	var states []types.ExtendedState
	for _, path := range a.ExtendedPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, shared.IOFailure("failed to read extended states "+path, err)
		}
		parsed, err := core.ParseExtendedStates(string(data))
		if err != nil {
			return nil, err
		}
		states = append(states, parsed...)
	}
	return states, nil
}

// MarkAutoInstalled updates or appends entries in the local override file.
func (a DpkgStateAdapter) MarkAutoInstalled(updates []types.ExtendedState) error {
	if len(a.ExtendedPaths) == 0 || len(updates) == 0 {
		return nil
	}
	path := a.ExtendedPaths[0]
	var current []types.ExtendedState
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		current, err = core.ParseExtendedStates(string(data))
		if err != nil {
			return err
		}
	case !os.IsNotExist(err):
		return shared.IOFailure("failed to read extended states "+path, err)
	}

	positions := map[string]int{}
	for i, state := range current {
		positions[state.Name] = i
	}
	for _, update := range updates {
		if i, ok := positions[update.Name]; ok {
			current[i].AutoInstalled = update.AutoInstalled
			continue
		}
		positions[update.Name] = len(current)
		current = append(current, update)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return shared.IOFailure("failed to create "+dir, err)
	}
	if err := writeFileAtomic(dir, path, []byte(core.FormatExtendedStates(current)), 0644); err != nil {
		return shared.IOFailure("failed to write extended states "+path, err)
	}
	return nil
}

var _ ports.SystemStatePort = DpkgStateAdapter{}
