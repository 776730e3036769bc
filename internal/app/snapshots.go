package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"minapt/internal/core"
	"minapt/internal/types"
)

// snapshots loads the package index, the installed state and the source
// list at most once per operation.
type snapshots struct {
	index     func() (*core.PackageIndex, error)
	installed func() (*core.InstalledState, error)
	sources   func() ([]types.Source, error)
}

func (s Service) newSnapshots(ctx context.Context) snapshots {
	return snapshots{
		index: sync.OnceValues(func() (*core.PackageIndex, error) {
			var files []types.IndexFile
			err := s.withLock(types.LockScopeLists, func() error {
				var err error
				files, err = s.Lists.ReadIndexFiles(ctx)
				return err
			})
			if err != nil {
				return nil, err
			}
			return core.BuildPackageIndex(ctx, files, s.compare())
		}),
		installed: sync.OnceValues(func() (*core.InstalledState, error) {
			records, err := s.State.ReadStatus()
			if err != nil {
				return nil, err
			}
			extended, err := s.State.ReadExtendedStates()
			if err != nil {
				return nil, err
			}
			state := core.NewInstalledState(records, extended)
			log.Ctx(ctx).Debug().Int("installed", state.Len()).Int("extended", len(extended)).Msg("installed state loaded")
			return state, nil
		}),
		sources: sync.OnceValues(func() ([]types.Source, error) {
			return s.Sources.LoadSources()
		}),
	}
}

// load returns both the index and the installed state.
func (snap snapshots) load() (*core.PackageIndex, *core.InstalledState, error) {
	index, err := snap.index()
	if err != nil {
		return nil, nil, err
	}
	installed, err := snap.installed()
	if err != nil {
		return nil, nil, err
	}
	return index, installed, nil
}
