package app

import (
	"path/filepath"
	"strings"

	"minapt/internal/adapters"
	"minapt/internal/core"
	"minapt/internal/policies"
	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

const defaultFetchWorkers = 4

// Config carries the resolved settings for one invocation.
type Config struct {
	RootDir        string
	SourcesList    string
	DpkgStatus     string
	ExtendedStates []string
	Arch           string
	FetchWorkers   int
	HTTP           adapters.HTTPConfig
	VersionScheme  string
	Hold           []string
	DpkgBinary     string
}

type Service struct {
	Sources   ports.SourcesPort
	Fetcher   ports.IndexFetcherPort
	Lists     ports.IndexCachePort
	State     ports.SystemStatePort
	Locks     ports.LockPort
	Archives  ports.ArchivePort
	Debs      ports.DebArchivePort
	Installer ports.InstallerPort
	Plans     ports.PlanWriterPort
	Hold      ports.HoldPolicyPort
	Compare   core.VersionComparator
	Arch      types.Architecture
	Workers   int
}

func NewService(cfg Config) (Service, error) {
	compare, err := core.ComparatorForScheme(cfg.VersionScheme)
	if err != nil {
		return Service{}, err
	}
	root := strings.TrimSpace(cfg.RootDir)
	if root == "" {
		root = "."
	}
	sourcesList := strings.TrimSpace(cfg.SourcesList)
	if sourcesList == "" {
		sourcesList = filepath.Join(root, "sources.list")
	}
	statusPath := strings.TrimSpace(cfg.DpkgStatus)
	if statusPath == "" {
		statusPath = "/var/lib/dpkg/status"
	}
	extended := cfg.ExtendedStates
	if len(extended) == 0 {
		extended = []string{filepath.Join(root, "apt", "extended_states"), "/var/lib/apt/extended_states"}
	}
	arch := types.ParseArchitecture(cfg.Arch)
	if arch == types.ArchitectureUnknown {
		if strings.TrimSpace(cfg.Arch) != "" {
			return Service{}, shared.MalformedInput("unsupported architecture " + cfg.Arch)
		}
		arch = types.ArchitectureAMD64
	}
	locks := adapters.NewDirLockAdapter(root)
	return Service{
		Sources:   adapters.NewSourcesFileAdapter(sourcesList),
		Fetcher:   adapters.NewHTTPIndexFetcher(cfg.HTTP),
		Lists:     adapters.NewListCacheAdapter(locks.Dir(types.LockScopeLists)),
		State:     adapters.NewDpkgStateAdapter(statusPath, extended),
		Locks:     locks,
		Archives:  adapters.NewArchiveStoreAdapter(locks.Dir(types.LockScopeArchive), cfg.HTTP),
		Debs:      adapters.NewDebArchiveAdapter(),
		Installer: adapters.NewDpkgInstallerAdapter(cfg.DpkgBinary),
		Plans:     adapters.NewPlanFileAdapter(),
		Hold:      policies.NewHoldPolicy(cfg.Hold),
		Compare:   compare,
		Arch:      arch,
		Workers:   cfg.FetchWorkers,
	}, nil
}

func (s Service) workers() int {
	if s.Workers <= 0 {
		return defaultFetchWorkers
	}
	return s.Workers
}

func (s Service) compare() core.VersionComparator {
	if s.Compare == nil {
		return core.CompareVersions
	}
	return s.Compare
}

// withLock runs fn while holding the lock for scope. Release errors are
// reported only when fn succeeded.
func (s Service) withLock(scope types.LockScope, fn func() error) (err error) {
	release, err := s.Locks.Acquire(scope)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := release(); releaseErr != nil && err == nil {
			err = shared.IOFailure("failed to release "+string(scope)+" lock", releaseErr)
		}
	}()
	return fn()
}
