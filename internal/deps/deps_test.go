package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckNotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	status := Check(context.Background(), Tool{Name: "pw-record", Required: true})
	assert.False(t, status.Installed)
	assert.Empty(t, status.Path)
	assert.True(t, status.Required)
}

func TestCheckInstalledWithVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	bin := t.TempDir()
	script := "#!/bin/sh\necho\necho 'pw-record 1.2.7'\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "pw-record"), []byte(script), 0o755))
	t.Setenv("PATH", bin)

	status := Check(context.Background(), Tool{Name: "pw-record", VersionFlag: "--version"})
	assert.True(t, status.Installed)
	assert.Equal(t, filepath.Join(bin, "pw-record"), status.Path)
	assert.Equal(t, "pw-record 1.2.7", status.Version)
}

func TestCheckAllAndMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	statuses := CheckAll(context.Background())
	require.Len(t, statuses, len(Tools))
	assert.Equal(t, []string{"pw-record", "pw-cli"}, Missing(statuses))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "v1", firstLine("\n  v1\nv2"))
	assert.Empty(t, firstLine("\n\n"))
}
