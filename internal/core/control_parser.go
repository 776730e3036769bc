package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"minapt/internal/shared"
	"minapt/internal/types"
)

const distsMarker = "_dists_"

// ParseControl parses control-file text into package records. filename is
// the cache file the text was read from; its distribution and component
// are recorded on every record. The first malformed field aborts the parse.
func ParseControl(text string, filename string) ([]types.Package, error) {
	dist, component := OriginFromFilename(filename)
	lines := strings.Split(text, "\n")
	var records []types.Package
	current := paragraph{}
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			record, ok, err := current.finish()
			if err != nil {
				return nil, err
			}
			if ok {
				records = append(records, tagOrigin(record, dist, component, filename))
			}
			current = paragraph{}
			continue
		}
		if isContinuation(line) {
			// Continuation of a field that is not tracked.
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if !found {
			return nil, shared.MalformedInput(fmt.Sprintf("invalid field line %d: %q", lineNo, line))
		}
		var continuation []string
		for i+1 < len(lines) && isContinuation(strings.TrimRight(lines[i+1], "\r")) {
			continuation = append(continuation, strings.TrimRight(lines[i+1], "\r")[1:])
			i++
		}
		if !current.started {
			current.started = true
			current.startLine = lineNo
		}
		if err := current.apply(strings.TrimSpace(field), strings.TrimSpace(value), continuation, lineNo, line); err != nil {
			return nil, err
		}
	}
	record, ok, err := current.finish()
	if err != nil {
		return nil, err
	}
	if ok {
		records = append(records, tagOrigin(record, dist, component, filename))
	}
	return records, nil
}

// OriginFromFilename derives (distribution, component) from a cache
// filename such as "jp.archive.ubuntu.com_ubuntu_dists_focal-main".
// Without the "_dists_" marker both values are empty.
func OriginFromFilename(filename string) (string, string) {
	base := filepath.Base(filename)
	idx := strings.Index(base, distsMarker)
	if idx < 0 {
		return "", ""
	}
	rest := base[idx+len(distsMarker):]
	cut := strings.LastIndex(rest, "-")
	if cut < 0 {
		return "", ""
	}
	return rest[:cut], rest[cut+1:]
}

func tagOrigin(record types.Package, dist string, component string, filename string) types.Package {
	record.Distribution = dist
	record.Component = component
	if filename != "" {
		record.IndexFile = filepath.Base(filename)
	}
	return record
}

func isContinuation(line string) bool {
	return len(line) > 1 && line[0] == ' ' && strings.TrimSpace(line) != ""
}

type paragraph struct {
	pkg       types.Package
	started   bool
	startLine int
}

func (p *paragraph) finish() (types.Package, bool, error) {
	if !p.started {
		return types.Package{}, false, nil
	}
	if p.pkg.Name == "" {
		return types.Package{}, false, shared.MalformedInput(fmt.Sprintf("paragraph at line %d has no Package field", p.startLine))
	}
	return p.pkg, true, nil
}

func (p *paragraph) apply(field string, value string, continuation []string, lineNo int, line string) error {
	name := strings.ToLower(field)
	switch name {
	case "description":
		p.pkg.Description = strings.Join(append([]string{value}, continuation...), "\n")
		return nil
	case "conffiles":
		if value != "" {
			p.pkg.Conffiles = append(p.pkg.Conffiles, value)
		}
		for _, entry := range continuation {
			p.pkg.Conffiles = append(p.pkg.Conffiles, strings.TrimSpace(entry))
		}
		return nil
	case "breaks":
		return nil
	}
	if !recognizedField(name) {
		return nil
	}
	if value == "" {
		return malformedField(field, lineNo, line)
	}
	if len(continuation) > 0 {
		value = strings.Join(append([]string{value}, continuation...), " ")
	}
	switch name {
	case "package":
		p.pkg.Name = value
	case "architecture":
		for _, arch := range strings.Fields(value) {
			p.pkg.Architectures = append(p.pkg.Architectures, types.ParseArchitecture(arch))
		}
	case "version":
		p.pkg.Version = value
	case "priority":
		p.pkg.Priority = types.ParsePriority(value)
	case "installed-size", "download-size", "size":
		size, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return malformedField(field, lineNo, line)
		}
		if name == "installed-size" {
			p.pkg.InstalledSize = size
		} else {
			p.pkg.DownloadSize = size
		}
	case "essential":
		p.pkg.Essential = value == "yes"
	case "section":
		p.pkg.Section = types.ParseSection(value)
	case "maintainer":
		p.pkg.Maintainer = value
	case "original-maintainer":
		p.pkg.OriginalMaintainer = value
	case "homepage":
		p.pkg.Homepage = value
	case "origin":
		p.pkg.Origin = value
	case "bugs":
		p.pkg.Bugs = value
	case "filename":
		p.pkg.Filename = value
	case "md5sum":
		p.pkg.MD5Sum = value
	case "depends", "pre-depends":
		deps, err := parseDependencyList(value)
		if err != nil {
			return err
		}
		if name == "depends" {
			p.pkg.Depends = deps
		} else {
			p.pkg.PreDepends = deps
		}
	case "provides":
		p.pkg.Provides = parseRelationNames(value)
	case "suggests":
		p.pkg.Suggests = parseRelationNames(value)
	case "status":
		status, err := parseStatus(value)
		if err != nil {
			return err
		}
		p.pkg.Status = &status
	}
	return nil
}

func recognizedField(name string) bool {
	switch name {
	case "package", "architecture", "version", "priority", "installed-size", "download-size", "size",
		"essential", "section", "maintainer", "original-maintainer", "homepage", "origin", "bugs",
		"filename", "md5sum", "depends", "pre-depends", "provides", "suggests", "status":
		return true
	default:
		return false
	}
}

func malformedField(field string, lineNo int, line string) error {
	return shared.MalformedInput(fmt.Sprintf("invalid '%s' field at line %d: %q", field, lineNo, line))
}

// parseDependencyList parses a Depends or Pre-Depends value. Only the first
// alternative of an OR group is kept, and only the version of a relation
// is kept, not its operator. Names appear once, first entry wins.
func parseDependencyList(value string) ([]types.Dependency, error) {
	var deps []types.Dependency
	seen := map[string]struct{}{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		dep, err := parseDependency(entry)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[dep.Name]; ok {
			continue
		}
		seen[dep.Name] = struct{}{}
		deps = append(deps, dep)
	}
	return deps, nil
}

// parseDependency parses "name" or "name (op version)"; for an OR group
// the first alternative is used.
func parseDependency(entry string) (types.Dependency, error) {
	if first, _, found := strings.Cut(entry, "|"); found {
		entry = first
	}
	tokens := strings.Fields(entry)
	switch len(tokens) {
	case 1:
		return types.Dependency{Name: tokens[0]}, nil
	case 3:
		if !strings.HasPrefix(tokens[1], "(") || !strings.HasSuffix(tokens[2], ")") {
			return types.Dependency{}, invalidDependency(entry)
		}
		return types.Dependency{
			Name:    tokens[0],
			Version: strings.TrimSuffix(tokens[2], ")"),
		}, nil
	default:
		return types.Dependency{}, invalidDependency(entry)
	}
}

func invalidDependency(entry string) error {
	return shared.MalformedInput(fmt.Sprintf("invalid Depends/Pre-Depends entry: %q", strings.TrimSpace(entry)))
}

// parseRelationNames keeps the package names of a relation list, dropping
// version clauses. Every alternative of an OR group is kept.
func parseRelationNames(value string) []string {
	var names []string
	for _, entry := range strings.Split(value, ",") {
		for _, alternative := range strings.Split(entry, "|") {
			fields := strings.Fields(alternative)
			if len(fields) == 0 {
				continue
			}
			names = append(names, fields[0])
		}
	}
	return shared.UniqueStrings(names)
}

func parseStatus(value string) (types.PackageStatus, error) {
	parts := strings.Fields(value)
	if len(parts) != 3 {
		return types.PackageStatus{}, shared.MalformedInput(fmt.Sprintf("missing field in Status: %q", value))
	}
	status := types.PackageStatus{}
	switch want := types.StatusWant(parts[0]); want {
	case types.StatusWantInstall, types.StatusWantHold, types.StatusWantDeinstall, types.StatusWantPurge:
		status.Want = want
	default:
		status.Want = types.StatusWantUnknown
	}
	switch flag := types.StatusFlag(parts[1]); flag {
	case types.StatusFlagOK, types.StatusFlagReinstReq, types.StatusFlagHold, types.StatusFlagHoldReinstReq:
		status.Flag = flag
	default:
		return types.PackageStatus{}, shared.MalformedInput(fmt.Sprintf("unknown Status flag: %q", parts[1]))
	}
	switch state := types.StatusState(parts[2]); state {
	case types.StatusStateNotInstalled, types.StatusStateUnpacked, types.StatusStateHalfConfigured,
		types.StatusStateInstalled, types.StatusStateHalfInstalled, types.StatusStateConfigFiles,
		types.StatusStatePostInstFailed, types.StatusStateRemovalFailed:
		status.State = state
	default:
		return types.PackageStatus{}, shared.MalformedInput(fmt.Sprintf("unknown Status state: %q", parts[2]))
	}
	return status, nil
}
