package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"minapt/internal/core"
	"minapt/internal/shared"
	"minapt/internal/types"
)

// List returns packages whose name matches the glob pattern. Installed
// lists the installed state instead of the index; Upgradable keeps only
// entries with a newer index version.
func (s Service) List(ctx context.Context, req ListRequest) ([]ListEntry, error) {
	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		pattern = "*"
	}
	index, installed, err := s.newSnapshots(ctx).load()
	if err != nil {
		return nil, err
	}

	upgradable := map[string]struct{}{}
	for _, upgrade := range core.CheckUpgradable(index, installed, s.compare()) {
		upgradable[upgrade.Name] = struct{}{}
	}

	source := index
	if req.Installed {
		source = core.NewPackageIndex(installed.Packages(), s.compare())
	}
	records, err := source.MatchGlob(pattern, !req.IgnoreCase)
	if err != nil {
		return nil, err
	}

	var out []ListEntry
	for _, record := range records {
		_, isUpgradable := upgradable[record.Name]
		if req.Upgradable && !isUpgradable {
			continue
		}
		entry := ListEntry{
			Name:          record.Name,
			Version:       record.Version,
			Architectures: record.Architectures,
			Distribution:  record.Distribution,
			Component:     record.Component,
			Upgradable:    isUpgradable,
		}
		if current, ok := installed.Get(record.Name); ok {
			entry.Installed = true
			entry.InstalledVersion = current.Version
			entry.Automatic = installed.IsAutoInstalled(record.Name)
			if req.Installed {
				if candidate, ok := index.Get(record.Name); ok {
					entry.Version = candidate.Version
					entry.Distribution = candidate.Distribution
					entry.Component = candidate.Component
				}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// Search matches a regular expression against package names and
// descriptions.
func (s Service) Search(ctx context.Context, req SearchRequest) ([]SearchEntry, error) {
	if strings.TrimSpace(req.Expression) == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("search expression is required")
	}
	index, installed, err := s.newSnapshots(ctx).load()
	if err != nil {
		return nil, err
	}
	records, err := index.SearchRegex(req.Expression, !req.IgnoreCase)
	if err != nil {
		return nil, err
	}
	out := make([]SearchEntry, 0, len(records))
	for _, record := range records {
		_, isInstalled := installed.Get(record.Name)
		out = append(out, SearchEntry{
			Name:        record.Name,
			Version:     record.Version,
			Summary:     record.Summary(),
			Description: record.Description,
			Installed:   isInstalled,
		})
	}
	return out, nil
}

// Show returns the full records matching pattern, from the index or from
// the installed state.
func (s Service) Show(ctx context.Context, req ShowRequest) ([]types.Package, error) {
	pattern := strings.TrimSpace(req.Pattern)
	if pattern == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package pattern is required")
	}
	snap := s.newSnapshots(ctx)
	var source *core.PackageIndex
	if req.Installed {
		installed, err := snap.installed()
		if err != nil {
			return nil, err
		}
		source = core.NewPackageIndex(installed.Packages(), s.compare())
	} else {
		index, err := snap.index()
		if err != nil {
			return nil, err
		}
		source = index
	}
	records, err := source.MatchGlob(pattern, !req.IgnoreCase)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, packageNotFound(pattern)
	}
	return records, nil
}

// packageNotFound reports a command-line package name that matches nothing,
// which is a bad argument rather than a dependency problem.
func packageNotFound(name string) error {
	return shared.MalformedInput(fmt.Sprintf("unable to locate package %s", name))
}
