package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minapt/internal/shared"
	"minapt/internal/types"
)

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdateFetchesSourcesAndCountsUpgradable(t *testing.T) {
	h := newTestHarness()
	h.lists.files = map[string]string{}
	secondary := testSource()
	secondary.Component = "universe"
	srcOnly := testSource()
	srcOnly.Type = types.SourceTypeDebSrc
	h.service.Sources = stubSources{sources: []types.Source{testSource(), secondary, srcOnly}}
	h.service.Fetcher = stubFetcher{content: map[string]string{
		testIndexFile: testIndex,
		secondary.CacheFilename(): "Package: fortune-mod\nVersion: 1:1.99.1-7\nArchitecture: amd64\n\n",
	}}

	result, err := h.service.Update(context.Background(), UpdateRequest{})
	require.NoError(t, err)

	assert.Len(t, result.Fetched, 2)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 8, result.Packages)
	assert.Equal(t, 3, result.Upgradable)
	assert.Contains(t, h.lists.files, "mirror.example_ubuntu_dists_focal-universe")
	assert.Equal(t, []types.LockScope{types.LockScopeLists, types.LockScopeLists}, h.locks.acquired)
	assert.Equal(t, 2, h.locks.released)
}

func TestUpdateAbortsOnFetchFailure(t *testing.T) {
	h := newTestHarness()
	h.service.Fetcher = stubFetcher{err: shared.IOFailure("failed to fetch package index", errors.New("connection refused"))}

	_, err := h.service.Update(context.Background(), UpdateRequest{})
	require.Error(t, err)
	assert.Equal(t, shared.KindIOFailure, shared.KindOf(err))
	assert.Zero(t, h.lists.reads)
}

func TestUpdateReportsLockContention(t *testing.T) {
	h := newTestHarness()
	h.locks.held[types.LockScopeLists] = true

	_, err := h.service.Update(context.Background(), UpdateRequest{})
	require.Error(t, err)
	assert.Equal(t, shared.KindLockContention, shared.KindOf(err))
	assert.Contains(t, err.Error(), "failed to get a lock")
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func TestListFilters(t *testing.T) {
	tests := []struct {
		name string
		req  ListRequest
		want []string
	}{
		{name: "all", req: ListRequest{}, want: []string{"base-files", "broken", "cowsay", "hello", "libc6", "libhello1", "tar"}},
		{name: "glob", req: ListRequest{Pattern: "lib*"}, want: []string{"libc6", "libhello1"}},
		{name: "upgradable", req: ListRequest{Upgradable: true}, want: []string{"cowsay", "libc6", "tar"}},
		{name: "installed", req: ListRequest{Installed: true}, want: []string{"base-files", "cowsay", "libc6", "tar"}},
		{name: "case sensitive", req: ListRequest{Pattern: "LIB*"}, want: nil},
		{name: "ignore case", req: ListRequest{Pattern: "LIB*", IgnoreCase: true}, want: []string{"libc6", "libhello1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			entries, err := h.service.List(context.Background(), tt.req)
			require.NoError(t, err)
			var got []string
			for _, entry := range entries {
				got = append(got, entry.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected names (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListInstalledShowsCandidate(t *testing.T) {
	h := newTestHarness()
	entries, err := h.service.List(context.Background(), ListRequest{Pattern: "libc6", Installed: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	want := ListEntry{
		Name:             "libc6",
		Version:          "2.35-0ubuntu3",
		Distribution:     "focal",
		Component:        "main",
		Installed:        true,
		InstalledVersion: "2.31-0ubuntu9",
		Upgradable:       true,
	}
	if diff := cmp.Diff(want, entries[0]); diff != "" {
		t.Fatalf("unexpected entry (-want +got):\n%s", diff)
	}
}

func TestListMarksAutomaticallyInstalled(t *testing.T) {
	h := newTestHarness()
	h.state.extended = []types.ExtendedState{
		{Name: "libc6", AutoInstalled: true},
		{Name: "tar", AutoInstalled: false},
	}
	entries, err := h.service.List(context.Background(), ListRequest{Installed: true})
	require.NoError(t, err)

	automatic := map[string]bool{}
	for _, entry := range entries {
		automatic[entry.Name] = entry.Automatic
	}
	want := map[string]bool{"base-files": false, "cowsay": false, "libc6": true, "tar": false}
	if diff := cmp.Diff(want, automatic); diff != "" {
		t.Fatalf("unexpected automatic flags (-want +got):\n%s", diff)
	}
}

func TestSearchMatchesNamesAndDescriptions(t *testing.T) {
	h := newTestHarness()
	entries, err := h.service.Search(context.Background(), SearchRequest{Expression: "GREETING", IgnoreCase: true})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Name)
	assert.Equal(t, "example package based on GNU hello", entries[0].Summary)
	assert.Equal(t, "libhello1", entries[1].Name)
	assert.False(t, entries[1].Installed)

	_, err = h.service.Search(context.Background(), SearchRequest{Expression: "("})
	require.Error(t, err)
	assert.Equal(t, shared.KindMalformedInput, shared.KindOf(err))
}

func TestShow(t *testing.T) {
	h := newTestHarness()
	records, err := h.service.Show(context.Background(), ShowRequest{Pattern: "tar"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1.34", records[0].Version)

	records, err = h.service.Show(context.Background(), ShowRequest{Pattern: "tar", Installed: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1.30", records[0].Version)

	_, err = h.service.Show(context.Background(), ShowRequest{Pattern: "nomatch"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to locate package nomatch")
	assert.Equal(t, shared.KindMalformedInput, shared.KindOf(err))
}

// ---------------------------------------------------------------------------
// Install
// ---------------------------------------------------------------------------

func TestInstallPlansAndInstallsInReverseOrder(t *testing.T) {
	h := newTestHarness()
	result, err := h.service.Install(context.Background(), InstallRequest{Target: "hello", Yes: true})
	require.NoError(t, err)

	wantPlan := types.InstallPlan{
		Targets: []types.PlanStep{{
			Name:     "hello",
			Version:  "2.10-2",
			State:    types.DependencyStateMissing,
			Filename: "pool/main/h/hello/hello_2.10-2_amd64.deb",
			URL:      "http://mirror.example/ubuntu/pool/main/h/hello/hello_2.10-2_amd64.deb",
			MD5Sum:   "6f5902ac237024bdd0c176cb93063dc4",
			Size:     100,
		}},
		Steps: []types.PlanStep{
			{
				Name:          "libhello1",
				Version:       "1.0",
				State:         types.DependencyStateMissing,
				Filename:      "pool/main/libh/libhello1_1.0_amd64.deb",
				URL:           "http://mirror.example/ubuntu/pool/main/libh/libhello1_1.0_amd64.deb",
				Size:          50,
				AutoInstalled: true,
			},
			{
				Name:     "libc6",
				Version:  "2.35-0ubuntu3",
				State:    types.DependencyStateOld,
				Filename: "pool/main/g/glibc/libc6_2.35-0ubuntu3_amd64.deb",
				URL:      "http://mirror.example/ubuntu/pool/main/g/glibc/libc6_2.35-0ubuntu3_amd64.deb",
				Size:     2000,
			},
		},
	}
	if diff := cmp.Diff(wantPlan, result.Plan); diff != "" {
		t.Fatalf("unexpected plan (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(2150), result.Plan.DownloadSize())

	wantPaths := []string{
		"/var/cache/minapt/archive/libc6_2.35-0ubuntu3_amd64.deb",
		"/var/cache/minapt/archive/libhello1_1.0_amd64.deb",
		"/var/cache/minapt/archive/hello_2.10-2_amd64.deb",
	}
	if diff := cmp.Diff(wantPaths, h.installer.paths); diff != "" {
		t.Fatalf("unexpected install order (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"libc6", "libhello1", "hello"}, result.Installed)
	assert.Len(t, h.archives.fetched, 3)

	wantMarked := []types.ExtendedState{
		{Name: "libhello1", AutoInstalled: true},
		{Name: "hello", AutoInstalled: false},
	}
	if diff := cmp.Diff(wantMarked, h.state.marked); diff != "" {
		t.Fatalf("unexpected extended states (-want +got):\n%s", diff)
	}
	assert.Contains(t, h.locks.acquired, types.LockScopeArchive)
}

func TestInstallDryRunWritesPlanOnly(t *testing.T) {
	h := newTestHarness()
	result, err := h.service.Install(context.Background(), InstallRequest{Target: "hello", DryRun: true, PlanOut: "plan.yaml"})
	require.NoError(t, err)

	assert.False(t, result.Aborted)
	assert.Equal(t, "plan.yaml", h.plans.path)
	assert.Len(t, h.plans.plan.Steps, 2)
	assert.Empty(t, h.archives.fetched)
	assert.Empty(t, h.installer.paths)
	assert.Empty(t, h.state.marked)
}

func TestInstallDeclinedByUser(t *testing.T) {
	h := newTestHarness()
	var prompted types.InstallPlan
	result, err := h.service.Install(context.Background(), InstallRequest{
		Target: "hello",
		Confirm: func(plan types.InstallPlan) (bool, error) {
			prompted = plan
			return false, nil
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Aborted)
	assert.Equal(t, "hello", prompted.Targets[0].Name)
	assert.Empty(t, h.installer.paths)
}

func TestInstallLocalArchive(t *testing.T) {
	h := newTestHarness()
	h.service.Debs = stubDebs{record: types.Package{
		Name:    "greeter",
		Version: "0.1",
		Depends: []types.Dependency{{Name: "libhello1"}},
	}}

	result, err := h.service.Install(context.Background(), InstallRequest{Target: "/tmp/greeter_0.1_amd64.deb", Yes: true})
	require.NoError(t, err)

	require.Len(t, result.Plan.Targets, 1)
	assert.Equal(t, "/tmp/greeter_0.1_amd64.deb", result.Plan.Targets[0].LocalPath)
	assert.Equal(t, []string{
		"/var/cache/minapt/archive/libhello1_1.0_amd64.deb",
		"/tmp/greeter_0.1_amd64.deb",
	}, h.installer.paths)
	assert.Len(t, h.archives.fetched, 1)
}

func TestInstallErrors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		kind    shared.ErrorKind
		message string
	}{
		{name: "empty target", target: " ", kind: shared.KindMalformedInput, message: "package name or .deb path is required"},
		{name: "unknown package", target: "nosuch", kind: shared.KindMalformedInput, message: "unable to locate package nosuch"},
		{name: "unresolved dependencies", target: "broken", kind: shared.KindUnresolvedDependencies, message: "unresolved dependencies: libghost, libphantom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness()
			_, err := h.service.Install(context.Background(), InstallRequest{Target: tt.target, Yes: true})
			require.Error(t, err)
			assert.Equal(t, tt.kind, shared.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, h.installer.paths)
		})
	}
}

func TestInstallAlreadyNewest(t *testing.T) {
	h := newTestHarness()
	result, err := h.service.Install(context.Background(), InstallRequest{Target: "base-files", Yes: true})
	require.NoError(t, err)
	assert.True(t, result.AlreadyInstalled)
	assert.True(t, result.Plan.Empty())
}

func TestInstallStopsOnInstallerFailure(t *testing.T) {
	h := newTestHarness()
	h.installer.failOn = "/var/cache/minapt/archive/libhello1_1.0_amd64.deb"

	result, err := h.service.Install(context.Background(), InstallRequest{Target: "hello", Yes: true})
	require.Error(t, err)
	assert.Equal(t, []string{"libc6"}, result.Installed)
	assert.Empty(t, h.state.marked)
}

func TestInstallArchiveLockContention(t *testing.T) {
	h := newTestHarness()
	h.locks.held[types.LockScopeArchive] = true

	_, err := h.service.Install(context.Background(), InstallRequest{Target: "hello", Yes: true})
	require.Error(t, err)
	assert.Equal(t, shared.KindLockContention, shared.KindOf(err))
	assert.Empty(t, h.installer.paths)
}

// ---------------------------------------------------------------------------
// Upgrade and clean
// ---------------------------------------------------------------------------

func TestUpgradeSkipsHeldPackages(t *testing.T) {
	h := newTestHarness("games:*")
	result, err := h.service.Upgrade(context.Background(), UpgradeRequest{Yes: true})
	require.NoError(t, err)

	require.Len(t, result.Held, 1)
	assert.Equal(t, "cowsay", result.Held[0].Name)
	var targets []string
	for _, step := range result.Plan.Targets {
		targets = append(targets, step.Name)
	}
	assert.Equal(t, []string{"libc6", "tar"}, targets)
	assert.Empty(t, result.Plan.Steps)
	assert.Equal(t, []string{"libc6", "tar"}, result.Installed)
	assert.Empty(t, h.state.marked)
}

const heldIndex = `Package: trunk
Version: 2
Architecture: amd64
Depends: heldlib (>= 2)
Filename: pool/main/t/trunk/trunk_2_amd64.deb
Description: needs a newer heldlib

Package: heldlib
Version: 2
Architecture: amd64
Filename: pool/main/h/heldlib/heldlib_2_amd64.deb
Description: library pinned by the administrator

Package: plain
Version: 2
Architecture: amd64
Filename: pool/main/p/plain/plain_2_amd64.deb
Description: unrelated upgrade
`

// newHeldHarness installs trunk, plain and heldlib at version 1 with
// heldlib on dpkg hold.
func newHeldHarness() *testHarness {
	h := newTestHarness()
	h.lists.files[testIndexFile] = heldIndex
	heldlib := installedRecord("heldlib", "1", types.SectionLibs)
	heldlib.Status.Want = types.StatusWantHold
	h.state.status = []types.Package{
		installedRecord("trunk", "1", types.SectionUtils),
		heldlib,
		installedRecord("plain", "1", types.SectionUtils),
	}
	return h
}

func TestUpgradeKeepsBackPackagesNeedingHeldUpgrades(t *testing.T) {
	h := newHeldHarness()
	result, err := h.service.Upgrade(context.Background(), UpgradeRequest{Yes: true})
	require.NoError(t, err)

	var held []string
	for _, upgrade := range result.Held {
		held = append(held, upgrade.Name)
	}
	assert.Equal(t, []string{"heldlib", "trunk"}, held)

	var planned []string
	for _, step := range append(append([]types.PlanStep{}, result.Plan.Targets...), result.Plan.Steps...) {
		planned = append(planned, step.Name)
	}
	assert.Equal(t, []string{"plain"}, planned)
	assert.Equal(t, []string{"plain"}, result.Installed)
	assert.Equal(t, []string{"/var/cache/minapt/archive/plain_2_amd64.deb"}, h.installer.paths)
}

func TestInstallRefusesToUpgradeHeldDependency(t *testing.T) {
	h := newHeldHarness()
	_, err := h.service.Install(context.Background(), InstallRequest{Target: "trunk", Yes: true})
	require.Error(t, err)
	assert.Equal(t, shared.KindUnresolvedDependencies, shared.KindOf(err))
	assert.Contains(t, err.Error(), "held packages would be upgraded: heldlib")
	assert.Empty(t, h.installer.paths)
	assert.Empty(t, h.archives.fetched)
}

func TestUpgradeNothingToDo(t *testing.T) {
	h := newTestHarness("*")
	result, err := h.service.Upgrade(context.Background(), UpgradeRequest{Yes: true})
	require.NoError(t, err)
	assert.True(t, result.Plan.Empty())
	assert.Len(t, result.Held, 3)
	assert.NotContains(t, h.locks.acquired, types.LockScopeArchive)
}

func TestClean(t *testing.T) {
	h := newTestHarness()
	h.archives.removed = 2

	result, err := h.service.Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, []types.LockScope{types.LockScopeArchive}, h.locks.acquired)
	assert.Equal(t, 1, h.locks.released)
}

// ---------------------------------------------------------------------------
// Pool URLs
// ---------------------------------------------------------------------------

func TestPoolURL(t *testing.T) {
	sources := []types.Source{testSource()}
	tests := []struct {
		name   string
		record types.Package
		want   string
	}{
		{
			name:   "configured source",
			record: types.Package{Filename: "pool/main/t/tar/tar_1.34_amd64.deb", IndexFile: testIndexFile},
			want:   "http://mirror.example/ubuntu/pool/main/t/tar/tar_1.34_amd64.deb",
		},
		{
			name:   "host from cache filename",
			record: types.Package{Filename: "pool/main/t/tar/tar_1.34_amd64.deb", IndexFile: "other.example_debian_dists_sid-main"},
			want:   "http://other.example/pool/main/t/tar/tar_1.34_amd64.deb",
		},
		{
			name:   "no filename",
			record: types.Package{IndexFile: testIndexFile},
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, poolURL(sources, tt.record))
		})
	}
}

func TestNewServiceRejectsUnknownScheme(t *testing.T) {
	_, err := NewService(Config{VersionScheme: "semver"})
	require.Error(t, err)
	assert.Equal(t, shared.KindMalformedInput, shared.KindOf(err))

	svc, err := NewService(Config{RootDir: t.TempDir(), Arch: "arm64"})
	require.NoError(t, err)
	assert.Equal(t, types.ArchitectureARM64, svc.Arch)
}
