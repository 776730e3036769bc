package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"minapt/internal/types"
)

// Clean removes every downloaded archive.
func (s Service) Clean(ctx context.Context) (CleanResult, error) {
	var removed int
	err := s.withLock(types.LockScopeArchive, func() error {
		var err error
		removed, err = s.Archives.Clean()
		return err
	})
	if err != nil {
		return CleanResult{}, err
	}
	log.Ctx(ctx).Debug().Int("removed", removed).Msg("archives cleaned")
	return CleanResult{Removed: removed}, nil
}
