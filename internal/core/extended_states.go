package core

import (
	"fmt"
	"strings"

	"minapt/internal/shared"
	"minapt/internal/types"
)

// ParseExtendedStates reads an apt extended_states file. Only Package and
// Auto-Installed are kept; entries are returned in file order.
func ParseExtendedStates(text string) ([]types.ExtendedState, error) {
	var states []types.ExtendedState
	var current *types.ExtendedState
	flush := func() {
		if current != nil {
			states = append(states, *current)
			current = nil
		}
	}
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if isContinuation(line) {
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if !found {
			return nil, shared.MalformedInput(fmt.Sprintf("invalid extended_states line %d: %q", i+1, line))
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(field)) {
		case "package":
			flush()
			if value == "" {
				return nil, malformedField("Package", i+1, line)
			}
			current = &types.ExtendedState{Name: value}
		case "auto-installed":
			if current == nil {
				return nil, shared.MalformedInput(fmt.Sprintf("Auto-Installed before Package at line %d", i+1))
			}
			current.AutoInstalled = value == "1"
		}
	}
	flush()
	return states, nil
}

// FormatExtendedStates renders states back into extended_states syntax.
func FormatExtendedStates(states []types.ExtendedState) string {
	var b strings.Builder
	for _, state := range states {
		auto := "0"
		if state.AutoInstalled {
			auto = "1"
		}
		fmt.Fprintf(&b, "Package: %s\nAuto-Installed: %s\n\n", state.Name, auto)
	}
	return b.String()
}
