package adapters

import (
	"os"

	"minapt/internal/core"
	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

type SourcesFileAdapter struct {
	Path string
}

func NewSourcesFileAdapter(path string) SourcesFileAdapter {
	return SourcesFileAdapter{Path: path}
}

func (a SourcesFileAdapter) LoadSources() ([]types.Source, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.MissingFile("sources list not found: "+a.Path, err)
		}
		return nil, shared.IOFailure("failed to read sources list "+a.Path, err)
	}
	return core.ParseSourcesList(string(data))
}

var _ ports.SourcesPort = SourcesFileAdapter{}
