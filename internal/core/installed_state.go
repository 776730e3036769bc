package core

import (
	"minapt/internal/types"
)

// InstalledState is the dpkg status records in file order plus the
// auto-installed flags from extended_states.
type InstalledState struct {
	records []types.Package
	byName  map[string]int
	auto    map[string]bool
}

// NewInstalledState keeps only records whose status is installed. For a
// name listed in several extended_states entries the first one wins.
func NewInstalledState(records []types.Package, extended []types.ExtendedState) *InstalledState {
	state := &InstalledState{
		byName: map[string]int{},
		auto:   map[string]bool{},
	}
	for _, record := range records {
		if !record.IsInstalled() {
			continue
		}
		if _, ok := state.byName[record.Name]; ok {
			continue
		}
		state.byName[record.Name] = len(state.records)
		state.records = append(state.records, record)
	}
	for _, entry := range extended {
		if _, ok := state.auto[entry.Name]; ok {
			continue
		}
		state.auto[entry.Name] = entry.AutoInstalled
	}
	return state
}

// Packages returns the installed records in status-file order.
func (s *InstalledState) Packages() []types.Package {
	if s == nil {
		return nil
	}
	return append([]types.Package(nil), s.records...)
}

func (s *InstalledState) Get(name string) (types.Package, bool) {
	if s == nil {
		return types.Package{}, false
	}
	idx, ok := s.byName[name]
	if !ok {
		return types.Package{}, false
	}
	return s.records[idx], true
}

func (s *InstalledState) IsAutoInstalled(name string) bool {
	if s == nil {
		return false
	}
	return s.auto[name]
}

func (s *InstalledState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}
