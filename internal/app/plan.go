package app

import (
	"strings"

	"minapt/internal/core"
	"minapt/internal/types"
)

// planBuilder turns resolver output into an InstallPlan. Each package
// appears once; targets take precedence over dependencies.
type planBuilder struct {
	sources []types.Source
	index   *core.PackageIndex
	seen    map[string]struct{}
	targets []types.PlanStep
	missing []types.PlanStep
	old     []types.PlanStep
}

func newPlanBuilder(sources []types.Source, index *core.PackageIndex) *planBuilder {
	return &planBuilder{
		sources: sources,
		index:   index,
		seen:    map[string]struct{}{},
	}
}

func (b *planBuilder) step(record types.Package, state types.DependencyState, auto bool) types.PlanStep {
	return types.PlanStep{
		Name:          record.Name,
		Version:       record.Version,
		State:         state,
		Filename:      record.Filename,
		URL:           poolURL(b.sources, record),
		MD5Sum:        record.MD5Sum,
		Size:          record.DownloadSize,
		AutoInstalled: auto,
	}
}

func (b *planBuilder) addTarget(step types.PlanStep) {
	if _, ok := b.seen[step.Name]; ok {
		return
	}
	b.seen[step.Name] = struct{}{}
	b.targets = append(b.targets, step)
}

// addEntries appends resolver entries in discovery order, keeping Missing
// and Old packages apart.
func (b *planBuilder) addEntries(entries []types.DependencyEntry) {
	for _, entry := range entries {
		record, ok := b.index.Lookup(entry.Name)
		if !ok {
			continue
		}
		if _, ok := b.seen[record.Name]; ok {
			continue
		}
		b.seen[record.Name] = struct{}{}
		switch entry.State {
		case types.DependencyStateMissing:
			b.missing = append(b.missing, b.step(record, entry.State, true))
		case types.DependencyStateOld:
			b.old = append(b.old, b.step(record, entry.State, false))
		}
	}
}

// plan lists Missing packages first, then Old ones.
func (b *planBuilder) plan() types.InstallPlan {
	steps := make([]types.PlanStep, 0, len(b.missing)+len(b.old))
	steps = append(steps, b.missing...)
	steps = append(steps, b.old...)
	return types.InstallPlan{Targets: b.targets, Steps: steps}
}

// poolURL locates record's archive through the source whose cache file
// produced it. Without one the host is taken from the cache filename.
func poolURL(sources []types.Source, record types.Package) string {
	if record.Filename == "" {
		return ""
	}
	for _, source := range sources {
		if source.CacheFilename() == record.IndexFile {
			return source.PoolURL(record.Filename)
		}
	}
	host := record.IndexFile
	if idx := strings.Index(host, "_"); idx >= 0 {
		host = host[:idx]
	}
	return "http://" + host + "/" + strings.TrimPrefix(record.Filename, "/")
}
