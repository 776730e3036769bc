package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minapt/tests/testutil"
)

func TestArchiveStoreFetchVerifiesAndCaches(t *testing.T) {
	deb := testutil.BuildDeb(t, helloControl, "gz")
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(deb)
	}))
	defer server.Close()

	dir := t.TempDir()
	store := NewArchiveStoreAdapter(dir, fastHTTPConfig())
	filename := "pool/main/h/hello/hello_2.10-2_amd64.deb"

	path, err := store.Fetch(context.Background(), server.URL+"/"+filename, filename, testutil.MD5Hex(deb))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hello_2.10-2_amd64.deb"), path)
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, deb, stored)

	_, err = store.Fetch(context.Background(), server.URL+"/"+filename, filename, testutil.MD5Hex(deb))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestArchiveStoreFetchChecksumMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	defer server.Close()

	dir := t.TempDir()
	store := NewArchiveStoreAdapter(dir, fastHTTPConfig())
	_, err := store.Fetch(context.Background(), server.URL+"/x.deb", "x.deb", "00000000000000000000000000000000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
	assert.NoFileExists(t, filepath.Join(dir, "x.deb"))

	leftovers, err := os.ReadDir(filepath.Join(dir, "partial"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestArchiveStoreFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	store := NewArchiveStoreAdapter(t.TempDir(), fastHTTPConfig())
	_, err := store.Fetch(context.Background(), server.URL+"/x.deb", "x.deb", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download x.deb")
}

func TestArchiveStoreClean(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.deb"), "a")
	writeTestFile(t, filepath.Join(dir, "b.deb"), "b")
	writeTestFile(t, filepath.Join(dir, "lock"), "")
	writeTestFile(t, filepath.Join(dir, "partial", "c.deb.123"), "c")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "auxfiles"), 0755))

	removed, err := NewArchiveStoreAdapter(dir, HTTPConfig{}).Clean()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.FileExists(t, filepath.Join(dir, "lock"))
	assert.DirExists(t, filepath.Join(dir, "auxfiles"))
	assert.NoFileExists(t, filepath.Join(dir, "partial", "c.deb.123"))
}
