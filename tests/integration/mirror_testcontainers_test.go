//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"minapt/internal/adapters"
	"minapt/internal/app"
)

const mirrorStatus = `Package: libc6
Status: install ok installed
Architecture: amd64
Version: 2.31-0ubuntu9.9
Description: GNU C Library: Shared libraries
`

func TestUpdateAndInstallAgainstContainerMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers mirror test in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startMirror(ctx, t)
	t.Cleanup(cleanup)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "sources.list"),
		[]byte(fmt.Sprintf("deb %s/ubuntu focal main\n", endpoint)), 0644))
	statusPath := filepath.Join(root, "status")
	require.NoError(t, os.WriteFile(statusPath, []byte(mirrorStatus), 0644))
	extended := filepath.Join(root, "apt", "extended_states")

	service, err := app.NewService(app.Config{
		RootDir:        root,
		DpkgStatus:     statusPath,
		ExtendedStates: []string{extended},
		DpkgBinary:     "true",
		HTTP:           adapters.HTTPConfig{TimeoutSec: 10, Retries: 1, RetryDelayMs: 100},
	})
	require.NoError(t, err)

	updated, err := service.Update(ctx, app.UpdateRequest{})
	require.NoError(t, err)
	require.Len(t, updated.Fetched, 1)
	assert.Equal(t, 2, updated.Packages)
	assert.Equal(t, 1, updated.Upgradable)

	installed, err := service.Install(ctx, app.InstallRequest{Target: "hello", Yes: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"libc6", "hello"}, installed.Installed)
	assert.FileExists(t, filepath.Join(root, "archive", "hello_2.10-2_amd64.deb"))
	assert.FileExists(t, filepath.Join(root, "archive", "libc6_2.35-0ubuntu3_amd64.deb"))

	states, err := os.ReadFile(extended)
	require.NoError(t, err)
	assert.Contains(t, string(states), "Package: hello\nAuto-Installed: 0\n")

	cleaned, err := service.Clean(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Removed)
}

func startMirror(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8082/tcp"},
		Cmd:          []string{"python", "-c", mirrorScript},
		WaitingFor:   wait.ForListeningPort("8082/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8082/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}

const mirrorScript = `
import gzip
import hashlib
import os

root = "/srv/repo/ubuntu"
entries = []
for name, version, pool in (
    ("hello", "2.10-2", "pool/main/h/hello/hello_2.10-2_amd64.deb"),
    ("libc6", "2.35-0ubuntu3", "pool/main/g/glibc/libc6_2.35-0ubuntu3_amd64.deb"),
):
    payload = ("%s %s archive" % (name, version)).encode()
    path = os.path.join(root, pool)
    os.makedirs(os.path.dirname(path), exist_ok=True)
    with open(path, "wb") as f:
        f.write(payload)
    depends = "Depends: libc6 (>= 2.34)\n" if name == "hello" else ""
    entries.append(
        "Package: %s\nVersion: %s\nArchitecture: amd64\n%sFilename: %s\nSize: %d\nMD5sum: %s\nDescription: %s\n"
        % (name, version, depends, pool, len(payload), hashlib.md5(payload).hexdigest(), name)
    )

dists = os.path.join(root, "dists", "focal", "main", "binary-amd64")
os.makedirs(dists, exist_ok=True)
with gzip.open(os.path.join(dists, "Packages.gz"), "wt") as f:
    f.write("\n".join(entries))

os.execvp("python", ["python", "-m", "http.server", "8082", "--directory", "/srv/repo"])
`
