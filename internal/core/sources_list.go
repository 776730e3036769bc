package core

import (
	"fmt"
	"strings"

	"minapt/internal/shared"
	"minapt/internal/types"
)

// ParseSourcesList parses a sources.list file. Blank lines and comments
// are skipped; each remaining line yields one source per component.
func ParseSourcesList(text string) ([]types.Source, error) {
	var sources []types.Source
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		parsed, err := ParseSourceLine(line)
		if err != nil {
			return nil, shared.MalformedInput(fmt.Sprintf("sources.list line %d: %s", i+1, err.Error()))
		}
		sources = append(sources, parsed...)
	}
	return sources, nil
}

// ParseSourceLine parses "deb http://host/path dist comp [comp...]".
func ParseSourceLine(line string) ([]types.Source, error) {
	parts := strings.Fields(line)
	if len(parts) < 4 {
		return nil, shared.MalformedInput(fmt.Sprintf("malformed source line: %q", line))
	}
	var sourceType types.SourceType
	switch parts[0] {
	case string(types.SourceTypeDeb):
		sourceType = types.SourceTypeDeb
	case string(types.SourceTypeDebSrc):
		sourceType = types.SourceTypeDebSrc
	default:
		return nil, shared.MalformedInput(fmt.Sprintf("unknown source type: %s", parts[0]))
	}
	scheme, uri, found := strings.Cut(parts[1], "://")
	if !found || uri == "" {
		return nil, shared.MalformedInput(fmt.Sprintf("malformed source line: invalid uri: %s", parts[1]))
	}
	if scheme != "http" && scheme != "https" {
		return nil, shared.MalformedInput(fmt.Sprintf("malformed source line: invalid protocol: %s", scheme))
	}
	sources := make([]types.Source, 0, len(parts)-3)
	for _, component := range parts[3:] {
		sources = append(sources, types.Source{
			Type:         sourceType,
			Scheme:       scheme,
			URI:          uri,
			Distribution: parts[2],
			Component:    component,
		})
	}
	return sources, nil
}

// BinarySources drops deb-src entries.
func BinarySources(sources []types.Source) []types.Source {
	var out []types.Source
	for _, source := range sources {
		if source.Type == types.SourceTypeDeb {
			out = append(out, source)
		}
	}
	return out
}
