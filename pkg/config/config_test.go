package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/letmein/pkg/repo"
)

func setenv(t *testing.T, key, val string) {
	t.Helper()

	old, had := os.LookupEnv(key)

	os.Setenv(key, val)

	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestConfig(t *testing.T) {
	t.Run("loads a config file", func(t *testing.T) {
		dir := t.TempDir()

		path := filepath.Join(dir, "config.json")

		err := ioutil.WriteFile(path, []byte(`{"data-dir": "`+dir+`/data", "formula-path": "/a:/b"}`), 0644)
		require.NoError(t, err)

		setenv(t, "KEG_CONFIG", path)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
		assert.Equal(t, cfg.DataDir, cfg.Prefix)
		assert.Equal(t, []string{"/a", "/b"}, cfg.LoadPath())
		assert.Equal(t, filepath.Join(dir, "data", "Cellar", "x", "1.0"), cfg.KegPath("x", "1.0"))
		assert.Equal(t, dir, cfg.ConfigDir())
	})

	t.Run("env overrides the file", func(t *testing.T) {
		dir := t.TempDir()

		path := filepath.Join(dir, "config.json")

		err := ioutil.WriteFile(path, []byte(`{"data-dir": "/nonexistant"}`), 0644)
		require.NoError(t, err)

		setenv(t, "KEG_CONFIG", path)
		setenv(t, "KEG_DATA_DIR", filepath.Join(dir, "d"))
		setenv(t, "KEG_PREFIX", filepath.Join(dir, "p"))

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, "d"), cfg.DataDir)
		assert.Equal(t, filepath.Join(dir, "p", "bin"), cfg.BinPath())

		require.NoError(t, cfg.EnsureDirs())

		for _, d := range []string{cfg.CellarPath(), cfg.CachePath(), cfg.BuildPath(), cfg.BinPath()} {
			fi, err := os.Stat(d)
			require.NoError(t, err)

			assert.True(t, fi.IsDir())
		}
	})

	t.Run("saves and reloads", func(t *testing.T) {
		dir := t.TempDir()

		cfg := &Config{
			path:      filepath.Join(dir, "keg", "config.json"),
			configDir: filepath.Join(dir, "keg"),
			DataDir:   filepath.Join(dir, "data"),
			Prefix:    filepath.Join(dir, "prefix"),
		}

		require.NoError(t, cfg.Save())

		setenv(t, "KEG_CONFIG", cfg.ConfigPath())

		loaded, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, cfg.DataDir, loaded.DataDir)
		assert.Equal(t, cfg.Prefix, loaded.Prefix)
	})

	t.Run("builds a repo chain ending with the builtins", func(t *testing.T) {
		tap := t.TempDir()

		cfg := &Config{FormulaPath: tap + ":" + filepath.Join(tap, "missing")}

		r := cfg.Repo(hclog.NewNullLogger())

		chain, ok := r.(repo.Chain)
		require.True(t, ok)

		require.Len(t, chain, 2)

		assert.Equal(t, repo.BuiltinId, chain[1].Id())

		_, err := r.Lookup("let-me-in")
		assert.NoError(t, err)
	})
}
