package app

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"minapt/internal/core"
	"minapt/internal/types"
)

// Update refreshes lists/ from every binary source and reports how many
// installed packages can be upgraded afterwards. A failed fetch aborts the
// update before any index is built.
func (s Service) Update(ctx context.Context, _ UpdateRequest) (UpdateResult, error) {
	sources, err := s.Sources.LoadSources()
	if err != nil {
		return UpdateResult{}, err
	}
	binary := core.BinarySources(sources)
	fetched := make([]types.FetchedIndex, len(binary))

	err = s.withLock(types.LockScopeLists, func() error {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.workers())
		for i, source := range binary {
			group.Go(func() error {
				content, err := s.Fetcher.FetchIndex(groupCtx, source, s.Arch)
				if err != nil {
					return err
				}
				filename := source.CacheFilename()
				if err := s.Lists.WriteIndex(filename, content); err != nil {
					return err
				}
				log.Ctx(ctx).Debug().Str("source", source.String()).Int("bytes", len(content)).Msg("index fetched")
				fetched[i] = types.FetchedIndex{Source: source, Filename: filename, Bytes: int64(len(content))}
				return nil
			})
		}
		return group.Wait()
	})
	if err != nil {
		return UpdateResult{}, err
	}

	index, installed, err := s.newSnapshots(ctx).load()
	if err != nil {
		return UpdateResult{}, err
	}
	upgrades := core.CheckUpgradable(index, installed, s.compare())
	log.Ctx(ctx).Debug().Int("sources", len(binary)).Int("packages", index.Len()).Int("upgradable", len(upgrades)).Msg("update complete")
	return UpdateResult{
		Fetched:    fetched,
		Skipped:    len(sources) - len(binary),
		Packages:   index.Len(),
		Upgradable: len(upgrades),
	}, nil
}
