package adapters

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"minapt/internal/core"
	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

// DebArchiveAdapter reads the control paragraph of a local .deb file.
type DebArchiveAdapter struct{}

func NewDebArchiveAdapter() DebArchiveAdapter {
	return DebArchiveAdapter{}
}

func (a DebArchiveAdapter) ReadControl(path string) (types.Package, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Package{}, shared.MissingFile("package file not found: "+path, err)
		}
		return types.Package{}, shared.IOFailure("failed to open package file "+path, err)
	}
	defer f.Close()

	control, err := extractControl(f)
	if err != nil {
		return types.Package{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid package file %s", filepath.Base(path))).
			WithCause(err)
	}
	records, err := core.ParseControl(control, "")
	if err != nil {
		return types.Package{}, err
	}
	if len(records) == 0 {
		return types.Package{}, shared.MalformedInput("empty control file in " + filepath.Base(path))
	}
	return records[0], nil
}

// extractControl walks the ar members of a .deb and returns the control
// file from its control.tar member.
func extractControl(r io.Reader) (string, error) {
	reader := ar.NewReader(r)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		name := strings.TrimRight(strings.TrimSpace(header.Name), "/")
		if !strings.HasPrefix(name, "control.tar") {
			continue
		}
		return readControlTar(reader, name)
	}
	return "", fmt.Errorf("control.tar not found in package")
}

func readControlTar(r io.Reader, member string) (string, error) {
	var tarReader *tar.Reader
	switch {
	case strings.HasSuffix(member, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return "", err
		}
		defer gz.Close()
		tarReader = tar.NewReader(gz)
	case strings.HasSuffix(member, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return "", err
		}
		tarReader = tar.NewReader(xr)
	case strings.HasSuffix(member, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return "", err
		}
		defer zr.Close()
		tarReader = tar.NewReader(zr)
	case member == "control.tar":
		tarReader = tar.NewReader(r)
	default:
		return "", fmt.Errorf("unknown control archive format: %s", member)
	}

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Name == "./control" || header.Name == "control" {
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
	}
	return "", fmt.Errorf("control file not found in %s", member)
}

var _ ports.DebArchivePort = DebArchiveAdapter{}
