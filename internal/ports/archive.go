package ports

import (
	"context"

	"minapt/internal/types"
)

// ArchivePort manages downloaded .deb files under archive/.
type ArchivePort interface {
	// Fetch downloads url into the archive and verifies md5sum when it is
	// set. It returns the local path of the stored file.
	Fetch(ctx context.Context, url string, filename string, md5sum string) (string, error)
	LocalPath(filename string) string
	Clean() (int, error)
}

// DebArchivePort reads metadata out of a local .deb file.
type DebArchivePort interface {
	ReadControl(path string) (types.Package, error)
}

type InstallerPort interface {
	Install(ctx context.Context, debPath string) error
}
