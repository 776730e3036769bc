package ports

import (
	"context"

	"minapt/internal/types"
)

// IndexFetcherPort downloads the decompressed Packages file of a source.
type IndexFetcherPort interface {
	FetchIndex(ctx context.Context, source types.Source, arch types.Architecture) ([]byte, error)
}

// IndexCachePort stores fetched Packages files under lists/, one file per
// source, and reads them back for index building.
type IndexCachePort interface {
	WriteIndex(filename string, content []byte) error
	ReadIndexFiles(ctx context.Context) ([]types.IndexFile, error)
}

type SourcesPort interface {
	LoadSources() ([]types.Source, error)
}
