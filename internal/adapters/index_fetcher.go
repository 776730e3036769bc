package adapters

import (
	"context"
	"io"
	"net/http"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/ulikunitz/xz"

	"minapt/internal/ports"
	"minapt/internal/shared"
	"minapt/internal/types"
)

// indexCompressions is the order Packages variants are tried in.
var indexCompressions = []types.Compression{
	types.CompressionGzip,
	types.CompressionXz,
	types.CompressionNone,
}

type HTTPIndexFetcher struct {
	client *http.Client
	cfg    httpRetryConfig
}

func NewHTTPIndexFetcher(cfg HTTPConfig) HTTPIndexFetcher {
	retry := normalizeHTTPConfig(cfg)
	return HTTPIndexFetcher{
		client: &http.Client{Timeout: retry.timeout},
		cfg:    retry,
	}
}

// FetchIndex tries Packages.gz, then Packages.xz, then plain Packages,
// moving on only when the server answers 404.
func (f HTTPIndexFetcher) FetchIndex(ctx context.Context, source types.Source, arch types.Architecture) ([]byte, error) {
	for _, compression := range indexCompressions {
		url := source.IndexURL(arch, compression)
		content, notFound, err := f.fetch(ctx, url, compression)
		if err != nil {
			return nil, err
		}
		if notFound {
			log.Ctx(ctx).Debug().Str("url", url).Msg("index variant not found")
			continue
		}
		return content, nil
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("no Packages index found for " + source.String())
}

func (f HTTPIndexFetcher) fetch(ctx context.Context, url string, compression types.Compression) ([]byte, bool, error) {
	resp, err := doRequest(ctx, f.client, url, f.cfg)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch package index").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	reader, closeFn, err := decompressIndex(resp.Body, compression)
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open compressed package index").
			WithCause(err)
	}
	defer closeFn()
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read package index").
			WithCause(err)
	}
	return content, false, nil
}

func decompressIndex(body io.Reader, compression types.Compression) (io.Reader, func(), error) {
	switch compression {
	case types.CompressionGzip:
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { gz.Close() }, nil
	case types.CompressionXz:
		xr, err := xz.NewReader(body)
		if err != nil {
			return nil, nil, err
		}
		return xr, func() {}, nil
	default:
		return body, func() {}, nil
	}
}

var _ ports.IndexFetcherPort = HTTPIndexFetcher{}
