package core

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"minapt/internal/shared"
	"minapt/internal/types"
)

// DependencyResolver computes the packages that must be fetched for a
// target against an index and the installed state.
type DependencyResolver struct {
	index     *PackageIndex
	installed *InstalledState
	compare   VersionComparator
}

func NewDependencyResolver(index *PackageIndex, installed *InstalledState, compare VersionComparator) DependencyResolver {
	if compare == nil {
		compare = CompareVersions
	}
	return DependencyResolver{
		index:     index,
		installed: installed,
		compare:   compare,
	}
}

// Resolve walks the dependencies of target breadth first and returns every
// Missing or Old package in discovery order. Names that exist in no index
// file fail the whole resolution; all of them are reported together.
func (r DependencyResolver) Resolve(ctx context.Context, target types.Package) ([]types.DependencyEntry, error) {
	if r.index == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("resolver requires a package index")
	}

	visited := map[string]struct{}{target.Name: {}}
	queue := []types.Package{target}
	var entries []types.DependencyEntry
	var unresolved []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range r.pending(current) {
			// "python3:any", "python3" and a virtual name all collapse onto
			// the package that ends up being installed.
			key := StripArchQualifier(dep.Name)
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			record, ok := r.index.Lookup(dep.Name)
			if !ok {
				unresolved = append(unresolved, dep.Name)
				continue
			}
			if _, seen := visited[record.Name]; seen {
				continue
			}
			visited[record.Name] = struct{}{}
			entries = append(entries, dep)
			queue = append(queue, record)
		}
	}

	if len(unresolved) > 0 {
		return nil, shared.UnresolvedDependencies(unresolved)
	}
	log.Ctx(ctx).Debug().Str("target", target.Name).Int("dependencies", len(entries)).Msg("dependencies resolved")
	return entries, nil
}

// pending classifies the Pre-Depends then Depends of record and returns
// those that are Missing or Old.
func (r DependencyResolver) pending(record types.Package) []types.DependencyEntry {
	var out []types.DependencyEntry
	for _, group := range [][]types.Dependency{record.PreDepends, record.Depends} {
		for _, dep := range group {
			state := r.Classify(dep)
			if state == types.DependencyStateUpToDate {
				continue
			}
			out = append(out, types.DependencyEntry{Name: dep.Name, State: state})
		}
	}
	return out
}

// Classify matches dep against installed packages by BaseNamePrefix. The
// first installed match decides.
func (r DependencyResolver) Classify(dep types.Dependency) types.DependencyState {
	if r.installed == nil {
		return types.DependencyStateMissing
	}
	prefix := BaseNamePrefix(StripArchQualifier(dep.Name))
	for _, installed := range r.installed.records {
		if BaseNamePrefix(installed.Name) != prefix {
			continue
		}
		if dep.HasConstraint() && r.compare(installed.Version, dep.Version) < 0 {
			return types.DependencyStateOld
		}
		return types.DependencyStateUpToDate
	}
	return types.DependencyStateMissing
}

// BaseNamePrefix returns name up to its first digit, so "libzstd1" and
// "libzstd2" share the prefix "libzstd".
func BaseNamePrefix(name string) string {
	for i := 0; i < len(name); i++ {
		if isDigit(name[i]) {
			return name[:i]
		}
	}
	return name
}
