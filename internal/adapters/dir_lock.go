package adapters

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"

	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

// DirLockAdapter guards root/<scope> with an advisory lock on
// root/<scope>/lock. Acquisition never blocks: a lock held elsewhere is
// LockContention, anything else is an IOFailure.
type DirLockAdapter struct {
	Root string
}

func NewDirLockAdapter(root string) DirLockAdapter {
	return DirLockAdapter{Root: root}
}

func (a DirLockAdapter) Dir(scope types.LockScope) string {
	return filepath.Join(a.Root, string(scope))
}

func (a DirLockAdapter) Acquire(scope types.LockScope) (func() error, error) {
	dir := a.Dir(scope)
	lockPath := filepath.Join(dir, lockFileName)
	if err := setupLockDir(dir); err != nil {
		return nil, shared.IOFailure("failed to prepare "+dir, err)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, shared.IOFailure("failed to open lock "+lockPath, err)
	}
	if !locked {
		return nil, shared.LockContention(lockPath, nil)
	}
	log.Debug().Str("lock", lockPath).Msg("lock acquired")
	return func() error {
		if err := lock.Unlock(); err != nil {
			return shared.IOFailure("failed to release lock "+lockPath, err)
		}
		return nil
	}, nil
}

// setupLockDir creates dir with its partial (0700) and auxfiles (0755)
// subdirectories.
func setupLockDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	subdirs := []struct {
		name string
		mode os.FileMode
	}{
		{name: partialDirName, mode: 0700},
		{name: auxDirName, mode: 0755},
	}
	for _, sub := range subdirs {
		path := filepath.Join(dir, sub.name)
		if err := os.MkdirAll(path, sub.mode); err != nil {
			return err
		}
		if err := os.Chmod(path, sub.mode); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.LockPort = DirLockAdapter{}
