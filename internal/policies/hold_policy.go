package policies

import (
	"strings"

	"minapt/internal/ports"
	"minapt/internal/types"
)

// HoldPolicy keeps installed packages out of upgrades. A package is held
// when dpkg marks it held or when it matches one of the configured
// patterns. Patterns are "name", "prefix*" or "*", optionally qualified by
// a section as "<section>:<pattern>".
type HoldPolicy struct {
	Patterns         []string
	exact            map[string]struct{}
	exactBySection   map[types.Section]map[string]struct{}
	prefixes         []string
	prefixBySection  map[types.Section][]string
	wildcard         bool
	wildcardSections map[types.Section]struct{}
}

func NewHoldPolicy(patterns []string) HoldPolicy {
	policy := HoldPolicy{Patterns: patterns}
	policy.compile()
	return policy
}

func (p HoldPolicy) IsHeld(pkg types.Package) bool {
	if pkg.IsHeld() {
		return true
	}
	if p.wildcard {
		return true
	}
	if _, ok := p.wildcardSections[pkg.Section]; ok {
		return true
	}
	if _, ok := p.exact[pkg.Name]; ok {
		return true
	}
	if _, ok := p.exactBySection[pkg.Section][pkg.Name]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(pkg.Name, prefix) {
			return true
		}
	}
	for _, prefix := range p.prefixBySection[pkg.Section] {
		if strings.HasPrefix(pkg.Name, prefix) {
			return true
		}
	}
	return false
}

type parsedPattern struct {
	section *types.Section
	kind    patternKind
	name    string
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternInvalid
)

func (p *HoldPolicy) compile() {
	p.exact = map[string]struct{}{}
	p.exactBySection = map[types.Section]map[string]struct{}{}
	p.prefixBySection = map[types.Section][]string{}
	p.wildcardSections = map[types.Section]struct{}{}
	for _, raw := range p.Patterns {
		parsed, ok := parsePattern(raw)
		if !ok {
			continue
		}
		switch parsed.kind {
		case patternWildcard:
			if parsed.section == nil {
				p.wildcard = true
			} else {
				p.wildcardSections[*parsed.section] = struct{}{}
			}
		case patternExact:
			if parsed.section == nil {
				p.exact[parsed.name] = struct{}{}
				continue
			}
			if p.exactBySection[*parsed.section] == nil {
				p.exactBySection[*parsed.section] = map[string]struct{}{}
			}
			p.exactBySection[*parsed.section][parsed.name] = struct{}{}
		case patternPrefix:
			if parsed.section == nil {
				p.prefixes = append(p.prefixes, parsed.name)
			} else {
				p.prefixBySection[*parsed.section] = append(p.prefixBySection[*parsed.section], parsed.name)
			}
		}
	}
}

func parsePattern(pattern string) (parsedPattern, bool) {
	trimmed := strings.TrimSpace(pattern)
	if trimmed == "" {
		return parsedPattern{kind: patternInvalid}, false
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) == 2 {
		section := types.ParseSection(strings.TrimSpace(parts[0]))
		if section == types.SectionUnknown {
			return parsedPattern{kind: patternInvalid}, false
		}
		name, kind := parseNamePattern(parts[1])
		if kind == patternInvalid {
			return parsedPattern{kind: patternInvalid}, false
		}
		return parsedPattern{section: &section, kind: kind, name: name}, true
	}
	if len(parts) > 2 {
		return parsedPattern{kind: patternInvalid}, false
	}
	name, kind := parseNamePattern(trimmed)
	if kind == patternInvalid {
		return parsedPattern{kind: patternInvalid}, false
	}
	return parsedPattern{kind: kind, name: name}, true
}

func parseNamePattern(value string) (string, patternKind) {
	pattern := strings.TrimSpace(value)
	if pattern == "" {
		return "", patternInvalid
	}
	if pattern == "*" {
		return "", patternWildcard
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), patternPrefix
	}
	return pattern, patternExact
}

// FilterHeld splits upgrades into those to apply and those held back.
func FilterHeld(policy ports.HoldPolicyPort, upgrades []types.Upgrade, installed func(string) (types.Package, bool)) ([]types.Upgrade, []types.Upgrade) {
	var apply, held []types.Upgrade
	for _, upgrade := range upgrades {
		record, ok := installed(upgrade.Name)
		if ok && policy != nil && policy.IsHeld(record) {
			held = append(held, upgrade)
			continue
		}
		apply = append(apply, upgrade)
	}
	return apply, held
}
