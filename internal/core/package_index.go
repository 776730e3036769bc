package core

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"minapt/internal/types"
)

// PackageIndex maps each package name to the one record chosen among all
// index files. It is read-only once built.
type PackageIndex struct {
	byName  map[string]types.Package
	order   []string
	compare VersionComparator
}

// BuildPackageIndex parses every file concurrently and merges the results
// in file order. Any parse error aborts the build.
func BuildPackageIndex(ctx context.Context, files []types.IndexFile, compare VersionComparator) (*PackageIndex, error) {
	parsed := make([][]types.Package, len(files))
	group, _ := errgroup.WithContext(ctx)
	for i, file := range files {
		group.Go(func() error {
			records, err := ParseControl(file.Content, file.Filename)
			if err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeOf(err)).
					WithMsg(fmt.Sprintf("failed to parse %s: %s", file.Filename, err.Error())).
					WithCause(err)
			}
			parsed[i] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var records []types.Package
	for _, slot := range parsed {
		records = append(records, slot...)
	}
	index := NewPackageIndex(records, compare)
	log.Ctx(ctx).Debug().Int("files", len(files)).Int("packages", index.Len()).Msg("package index built")
	return index, nil
}

// NewPackageIndex merges already parsed records, keeping one per name.
func NewPackageIndex(records []types.Package, compare VersionComparator) *PackageIndex {
	if compare == nil {
		compare = CompareVersions
	}
	index := &PackageIndex{
		byName:  map[string]types.Package{},
		compare: compare,
	}
	for _, record := range records {
		current, ok := index.byName[record.Name]
		if !ok {
			index.byName[record.Name] = record
			continue
		}
		index.byName[record.Name] = choosePackage(current, record, compare)
	}
	index.order = make([]string, 0, len(index.byName))
	for name := range index.byName {
		index.order = append(index.order, name)
	}
	sort.Strings(index.order)
	return index
}

// choosePackage prefers the higher priority, then the higher version. On a
// full tie the record seen first is kept.
func choosePackage(current types.Package, candidate types.Package, compare VersionComparator) types.Package {
	if candidate.Priority != current.Priority {
		if candidate.Priority > current.Priority {
			return candidate
		}
		return current
	}
	if compare(candidate.Version, current.Version) > 0 {
		return candidate
	}
	return current
}

func (i *PackageIndex) Get(name string) (types.Package, bool) {
	if i == nil {
		return types.Package{}, false
	}
	record, ok := i.byName[name]
	return record, ok
}

// Provider returns the first record, in name order, whose Provides lists
// name.
func (i *PackageIndex) Provider(name string) (types.Package, bool) {
	if i == nil {
		return types.Package{}, false
	}
	for _, candidate := range i.order {
		record := i.byName[candidate]
		for _, provided := range record.Provides {
			if provided == name {
				return record, true
			}
		}
	}
	return types.Package{}, false
}

// Lookup resolves name directly or through Provides, ignoring any
// architecture qualifier.
func (i *PackageIndex) Lookup(name string) (types.Package, bool) {
	name = StripArchQualifier(name)
	if record, ok := i.Get(name); ok {
		return record, true
	}
	return i.Provider(name)
}

// MatchGlob returns records whose name or a provided name matches the
// shell pattern, sorted by name.
func (i *PackageIndex) MatchGlob(pattern string, caseSensitive bool) ([]types.Package, error) {
	if !caseSensitive {
		pattern = strings.ToLower(pattern)
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package pattern %q", pattern)).
			WithCause(err)
	}
	matches := func(value string) bool {
		if !caseSensitive {
			value = strings.ToLower(value)
		}
		ok, _ := path.Match(pattern, value)
		return ok
	}
	var out []types.Package
	for _, record := range i.Packages() {
		if matches(record.Name) {
			out = append(out, record)
			continue
		}
		for _, provided := range record.Provides {
			if matches(provided) {
				out = append(out, record)
				break
			}
		}
	}
	return out, nil
}

// SearchRegex returns records whose name or description matches expr,
// sorted by name.
func (i *PackageIndex) SearchRegex(expr string, caseSensitive bool) ([]types.Package, error) {
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid search expression %q", expr)).
			WithCause(err)
	}
	var out []types.Package
	for _, record := range i.Packages() {
		if re.MatchString(record.Name) || re.MatchString(record.Description) {
			out = append(out, record)
		}
	}
	return out, nil
}

// Packages returns every chosen record sorted by name.
func (i *PackageIndex) Packages() []types.Package {
	if i == nil {
		return nil
	}
	out := make([]types.Package, 0, len(i.order))
	for _, name := range i.order {
		out = append(out, i.byName[name])
	}
	return out
}

func (i *PackageIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.order)
}

// StripArchQualifier drops a ":arch" suffix such as "python3:any".
func StripArchQualifier(name string) string {
	if idx := strings.Index(name, ":"); idx > 0 {
		return name[:idx]
	}
	return name
}
