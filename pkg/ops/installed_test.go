package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/letmein/pkg/data"
)

func TestInstalledVersions(t *testing.T) {
	top := t.TempDir()

	ienv := &InstallEnv{
		Cellar: filepath.Join(top, "Cellar"),
		Prefix: filepath.Join(top, "prefix"),
	}

	for _, v := range []string{"0.0.10", "HEAD", "0.0.2"} {
		dir := ienv.KegPath("let-me-in", v)
		require.NoError(t, os.MkdirAll(dir, 0755))

		require.NoError(t, writeReceipt(dir, &data.Receipt{Name: "let-me-in", Version: v, Binary: "let-me-in"}))
	}

	require.NoError(t, os.MkdirAll(ienv.KegPath("let-me-in", "0.0.1"), 0755))

	var in Installed

	rs, err := in.Versions(ienv, "let-me-in")
	require.NoError(t, err)

	var versions []string

	for _, r := range rs {
		versions = append(versions, r.Version)
	}

	assert.Equal(t, []string{"0.0.2", "0.0.10", "HEAD"}, versions)

	rs, err = in.Versions(ienv, "missing")
	require.NoError(t, err)

	assert.Empty(t, rs)
}
