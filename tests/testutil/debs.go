package testutil

import (
	"archive/tar"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// BuildDeb returns a minimal .deb whose control member holds control,
// compressed as "gz", "xz", "zst" or "" (plain control.tar).
func BuildDeb(t *testing.T, control string, compression string) []byte {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:    "./control",
		Mode:    0644,
		Size:    int64(len(control)),
		ModTime: time.Unix(0, 0),
	}))
	_, err := tw.Write([]byte(control))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	member := "control.tar"
	var compressed bytes.Buffer
	var w io.WriteCloser
	switch compression {
	case "gz":
		w = gzip.NewWriter(&compressed)
	case "xz":
		xw, err := xz.NewWriter(&compressed)
		require.NoError(t, err)
		w = xw
	case "zst":
		zw, err := zstd.NewWriter(&compressed)
		require.NoError(t, err)
		w = zw
	}
	payload := tarBuf.Bytes()
	if w != nil {
		member += "." + compression
		_, err := w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		payload = compressed.Bytes()
	}

	var debBuf bytes.Buffer
	aw := ar.NewWriter(&debBuf)
	require.NoError(t, aw.WriteGlobalHeader())
	members := []struct {
		name string
		body []byte
	}{
		{name: "debian-binary", body: []byte("2.0\n")},
		{name: member, body: payload},
		{name: "data.tar", body: emptyTar(t)},
	}
	for _, m := range members {
		require.NoError(t, aw.WriteHeader(&ar.Header{
			Name:    m.name,
			Size:    int64(len(m.body)),
			Mode:    0644,
			ModTime: time.Unix(0, 0),
		}))
		_, err := aw.Write(m.body)
		require.NoError(t, err)
	}
	return debBuf.Bytes()
}

func emptyTar(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

// MD5Hex is the MD5sum field value for data.
func MD5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
