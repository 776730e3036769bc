package app

import (
	"context"
	"errors"
	"path"
	"sort"
	"sync"

	"minapt/internal/core"
	"minapt/internal/policies"
	"minapt/internal/shared"
	"minapt/internal/types"
)

const testIndexFile = "mirror.example_ubuntu_dists_focal-main"

const testIndex = `Package: hello
Version: 2.10-2
Priority: optional
Section: devel
Architecture: amd64
Depends: libc6 (>= 2.34), libhello1
Filename: pool/main/h/hello/hello_2.10-2_amd64.deb
Size: 100
MD5sum: 6f5902ac237024bdd0c176cb93063dc4
Description: example package based on GNU hello
 The GNU hello program produces a familiar, friendly greeting.

Package: libhello1
Version: 1.0
Section: libs
Architecture: amd64
Depends: libc6
Filename: pool/main/libh/libhello1_1.0_amd64.deb
Size: 50
Description: shared greeting library

Package: libc6
Version: 2.35-0ubuntu3
Priority: required
Section: libs
Architecture: amd64
Filename: pool/main/g/glibc/libc6_2.35-0ubuntu3_amd64.deb
Size: 2000
Description: GNU C Library: Shared libraries

Package: tar
Version: 1.34
Priority: required
Section: utils
Architecture: amd64
Filename: pool/main/t/tar/tar_1.34_amd64.deb
Size: 300
Description: GNU version of the tar archiving utility

Package: cowsay
Version: 3.03+dfsg2-8
Section: games
Architecture: all
Filename: pool/universe/c/cowsay/cowsay_3.03+dfsg2-8_all.deb
Size: 20
Description: configurable talking cow

Package: base-files
Version: 11ubuntu5
Priority: required
Section: admin
Architecture: amd64
Filename: pool/main/b/base-files/base-files_11ubuntu5_amd64.deb
Description: Debian base system miscellaneous files

Package: broken
Version: 1.0
Architecture: amd64
Depends: libghost, libphantom (>= 2)
Filename: pool/main/b/broken/broken_1.0_amd64.deb
Description: depends on packages nobody ships
`

func testSource() types.Source {
	return types.Source{
		Type:         types.SourceTypeDeb,
		Scheme:       "http",
		URI:          "mirror.example/ubuntu",
		Distribution: "focal",
		Component:    "main",
	}
}

func installedRecord(name string, version string, section types.Section) types.Package {
	return types.Package{
		Name:    name,
		Version: version,
		Section: section,
		Status:  &types.PackageStatus{Want: types.StatusWantInstall, Flag: types.StatusFlagOK, State: types.StatusStateInstalled},
	}
}

// ---------------------------------------------------------------------------
// Port doubles
// ---------------------------------------------------------------------------

type stubSources struct {
	sources []types.Source
	err     error
}

func (s stubSources) LoadSources() ([]types.Source, error) {
	return s.sources, s.err
}

type stubFetcher struct {
	content map[string]string
	err     error
}

func (f stubFetcher) FetchIndex(_ context.Context, source types.Source, _ types.Architecture) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	content, ok := f.content[source.CacheFilename()]
	if !ok {
		return nil, shared.MissingFile("no Packages index found for "+source.String(), nil)
	}
	return []byte(content), nil
}

type memoryLists struct {
	mu    sync.Mutex
	files map[string]string
	reads int
}

func newMemoryLists(files map[string]string) *memoryLists {
	if files == nil {
		files = map[string]string{}
	}
	return &memoryLists{files: files}
}

func (l *memoryLists) WriteIndex(filename string, content []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.files[filename] = string(content)
	return nil
}

func (l *memoryLists) ReadIndexFiles(_ context.Context) ([]types.IndexFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	names := make([]string, 0, len(l.files))
	for name := range l.files {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]types.IndexFile, 0, len(names))
	for _, name := range names {
		out = append(out, types.IndexFile{Filename: name, Content: l.files[name]})
	}
	return out, nil
}

type stubState struct {
	status   []types.Package
	extended []types.ExtendedState
	marked   []types.ExtendedState
}

func (s *stubState) ReadStatus() ([]types.Package, error) {
	return s.status, nil
}

func (s *stubState) ReadExtendedStates() ([]types.ExtendedState, error) {
	return s.extended, nil
}

func (s *stubState) MarkAutoInstalled(states []types.ExtendedState) error {
	s.marked = append(s.marked, states...)
	return nil
}

type stubLocks struct {
	mu       sync.Mutex
	held     map[types.LockScope]bool
	acquired []types.LockScope
	released int
}

func (l *stubLocks) Acquire(scope types.LockScope) (func() error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[scope] {
		return nil, shared.LockContention("/var/lib/minapt/"+string(scope)+"/lock", nil)
	}
	l.acquired = append(l.acquired, scope)
	return func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

type stubArchives struct {
	mu      sync.Mutex
	fetched []string
	removed int
	err     error
}

func (a *stubArchives) Fetch(_ context.Context, url string, filename string, _ string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetched = append(a.fetched, url)
	return a.LocalPath(filename), nil
}

func (a *stubArchives) LocalPath(filename string) string {
	return "/var/cache/minapt/archive/" + path.Base(filename)
}

func (a *stubArchives) Clean() (int, error) {
	return a.removed, a.err
}

type stubDebs struct {
	record types.Package
}

func (d stubDebs) ReadControl(_ string) (types.Package, error) {
	return d.record, nil
}

type recordingInstaller struct {
	paths  []string
	failOn string
}

func (i *recordingInstaller) Install(_ context.Context, debPath string) error {
	if debPath == i.failOn {
		return errors.New("dpkg -i " + debPath + " failed")
	}
	i.paths = append(i.paths, debPath)
	return nil
}

type recordingPlans struct {
	path string
	plan types.InstallPlan
}

func (p *recordingPlans) WritePlan(path string, plan types.InstallPlan) error {
	p.path = path
	p.plan = plan
	return nil
}

// testHarness wires a Service to in-memory doubles seeded with testIndex
// and a small installed system.
type testHarness struct {
	service   Service
	lists     *memoryLists
	state     *stubState
	locks     *stubLocks
	archives  *stubArchives
	installer *recordingInstaller
	plans     *recordingPlans
}

func newTestHarness(hold ...string) *testHarness {
	h := &testHarness{
		lists: newMemoryLists(map[string]string{testIndexFile: testIndex}),
		state: &stubState{status: []types.Package{
			installedRecord("libc6", "2.31-0ubuntu9", types.SectionLibs),
			installedRecord("tar", "1.30", types.SectionUtils),
			installedRecord("cowsay", "3.03+dfsg2-7", types.SectionGames),
			installedRecord("base-files", "11ubuntu5", types.SectionAdmin),
		}},
		locks:     &stubLocks{held: map[types.LockScope]bool{}},
		archives:  &stubArchives{},
		installer: &recordingInstaller{},
		plans:     &recordingPlans{},
	}
	h.service = Service{
		Sources:   stubSources{sources: []types.Source{testSource()}},
		Fetcher:   stubFetcher{content: map[string]string{testIndexFile: testIndex}},
		Lists:     h.lists,
		State:     h.state,
		Locks:     h.locks,
		Archives:  h.archives,
		Debs:      stubDebs{},
		Installer: h.installer,
		Plans:     h.plans,
		Hold:      policies.NewHoldPolicy(hold),
		Compare:   core.CompareVersions,
		Arch:      types.ArchitectureAMD64,
		Workers:   2,
	}
	return h
}
