package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

const (
	lockFileName   = "lock"
	partialDirName = "partial"
	auxDirName     = "auxfiles"
)

// ListCacheAdapter keeps one decompressed Packages file per source in a
// lists directory.
type ListCacheAdapter struct {
	Dir string
}

func NewListCacheAdapter(dir string) ListCacheAdapter {
	return ListCacheAdapter{Dir: dir}
}

// WriteIndex replaces lists/<filename> atomically: the content is written
// to lists/partial first and renamed into place.
func (a ListCacheAdapter) WriteIndex(filename string, content []byte) error {
	if strings.TrimSpace(filename) == "" || strings.ContainsRune(filename, filepath.Separator) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid cache filename: " + filename)
	}
	if err := writeFileAtomic(filepath.Join(a.Dir, partialDirName), filepath.Join(a.Dir, filename), content, 0644); err != nil {
		return shared.IOFailure("failed to write cache file "+filename, err)
	}
	return nil
}

// ReadIndexFiles returns every cache file in name order. The lock file and
// the partial and auxfiles directories are skipped.
func (a ListCacheAdapter) ReadIndexFiles(ctx context.Context) ([]types.IndexFile, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, shared.IOFailure("failed to read lists directory "+a.Dir, err)
	}
	var files []types.IndexFile
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == lockFileName {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.Dir, entry.Name()))
		if err != nil {
			return nil, shared.IOFailure("failed to read cache file "+entry.Name(), err)
		}
		files = append(files, types.IndexFile{Filename: entry.Name(), Content: string(data)})
	}
	log.Ctx(ctx).Debug().Str("dir", a.Dir).Int("files", len(files)).Msg("cache files loaded")
	return files, nil
}

// writeFileAtomic writes content to a temp file in tmpDir and renames it to
// target. tmpDir must be on the same filesystem as target.
func writeFileAtomic(tmpDir string, target string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(tmpDir, filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

var _ ports.IndexCachePort = ListCacheAdapter{}
