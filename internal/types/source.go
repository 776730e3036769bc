package types

import (
	"fmt"
	"strings"
)

// Source is one (repository, distribution, component) tuple from a
// sources.list line. URI is stored without its scheme.
type Source struct {
	Type         SourceType
	Scheme       string
	URI          string
	Distribution string
	Component    string
}

// IndexFile is the raw content of one cache file together with its name,
// which carries the distribution and component.
type IndexFile struct {
	Filename string
	Content  string
}

// FetchedIndex reports one completed index fetch.
type FetchedIndex struct {
	Source   Source
	Filename string
	Bytes    int64
}

// BaseURL is the repository root with a trailing slash.
func (s Source) BaseURL() string {
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	uri := s.URI
	if !strings.HasSuffix(uri, "/") {
		uri += "/"
	}
	return scheme + "://" + uri
}

// IndexURL is the location of the Packages file for arch.
func (s Source) IndexURL(arch Architecture, compression Compression) string {
	url := fmt.Sprintf("%sdists/%s/%s/binary-%s/Packages", s.BaseURL(), s.Distribution, s.Component, arch)
	if compression != CompressionNone {
		url += "." + string(compression)
	}
	return url
}

// CacheFilename is the lists/ file name for this source, e.g.
// "jp.archive.ubuntu.com_ubuntu_dists_focal-main".
func (s Source) CacheFilename() string {
	host := strings.ReplaceAll(strings.TrimSuffix(s.URI, "/"), "/", "_")
	return fmt.Sprintf("%s_dists_%s-%s", host, s.Distribution, s.Component)
}

// PoolURL joins the repository root and a record's Filename.
func (s Source) PoolURL(filename string) string {
	return s.BaseURL() + strings.TrimPrefix(filename, "/")
}

func (s Source) String() string {
	return fmt.Sprintf("%s %s %s/%s", s.Type, s.BaseURL(), s.Distribution, s.Component)
}
