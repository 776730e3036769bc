package adapters

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"minapt/internal/ports"
	"minapt/internal/shared"
)

// ArchiveStoreAdapter downloads .deb files into Dir through Dir/partial.
type ArchiveStoreAdapter struct {
	Dir    string
	client *http.Client
	cfg    httpRetryConfig
}

func NewArchiveStoreAdapter(dir string, cfg HTTPConfig) ArchiveStoreAdapter {
	retry := normalizeHTTPConfig(cfg)
	return ArchiveStoreAdapter{
		Dir:    dir,
		client: &http.Client{Timeout: retry.timeout},
		cfg:    retry,
	}
}

// LocalPath is where the archive for a pool Filename is stored.
func (a ArchiveStoreAdapter) LocalPath(filename string) string {
	return filepath.Join(a.Dir, filepath.Base(filename))
}

// Fetch reuses an already stored file whose checksum matches, otherwise
// downloads url. A checksum mismatch leaves nothing behind.
func (a ArchiveStoreAdapter) Fetch(ctx context.Context, url string, filename string, md5sum string) (string, error) {
	target := a.LocalPath(filename)
	if existing, err := fileMD5(target); err == nil && (md5sum == "" || strings.EqualFold(existing, md5sum)) {
		log.Ctx(ctx).Debug().Str("archive", target).Msg("archive already downloaded")
		return target, nil
	}

	resp, err := doRequest(ctx, a.client, url, a.cfg)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to download " + filepath.Base(filename)).
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}

	partial := filepath.Join(a.Dir, partialDirName)
	if err := os.MkdirAll(partial, 0700); err != nil {
		return "", shared.IOFailure("failed to create "+partial, err)
	}
	tmp, err := os.CreateTemp(partial, filepath.Base(target)+".*")
	if err != nil {
		return "", shared.IOFailure("failed to create download file", err)
	}
	tmpName := tmp.Name()
	hash := md5.New()
	_, copyErr := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpName)
		cause := copyErr
		if cause == nil {
			cause = closeErr
		}
		return "", shared.IOFailure("failed to download "+filepath.Base(filename), cause)
	}
	got := hex.EncodeToString(hash.Sum(nil))
	if md5sum != "" && !strings.EqualFold(got, md5sum) {
		os.Remove(tmpName)
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("checksum mismatch for %s: want %s, got %s", filepath.Base(filename), md5sum, got))
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", shared.IOFailure("failed to store "+filepath.Base(filename), err)
	}
	log.Ctx(ctx).Info().Str("archive", filepath.Base(target)).Msg("downloaded")
	return target, nil
}

// Clean removes every stored archive and any partial download. It returns
// the number of archives removed.
func (a ArchiveStoreAdapter) Clean() (int, error) {
	removed := 0
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, shared.IOFailure("failed to read archive directory "+a.Dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == lockFileName {
			continue
		}
		if err := os.Remove(filepath.Join(a.Dir, entry.Name())); err != nil {
			return removed, shared.IOFailure("failed to delete an archive: "+entry.Name(), err)
		}
		removed++
	}
	partial := filepath.Join(a.Dir, partialDirName)
	leftovers, err := os.ReadDir(partial)
	if err != nil && !os.IsNotExist(err) {
		return removed, shared.IOFailure("failed to read "+partial, err)
	}
	for _, entry := range leftovers {
		if err := os.RemoveAll(filepath.Join(partial, entry.Name())); err != nil {
			return removed, shared.IOFailure("failed to delete a partial download: "+entry.Name(), err)
		}
	}
	return removed, nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

var _ ports.ArchivePort = ArchiveStoreAdapter{}
