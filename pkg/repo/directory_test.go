package repo

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory(t *testing.T) {
	top, err := ioutil.TempDir("", "dir")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	dir := filepath.Join(top, "tap")

	t.Run("load name.star", func(t *testing.T) {
		err := os.MkdirAll(dir, 0755)
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		ioutil.WriteFile(
			filepath.Join(dir, "a"+Extension),
			[]byte(`data`),
			0644)

		do, err := NewDirectory(dir)
		require.NoError(t, err)

		ent, err := do.Lookup("a")
		require.NoError(t, err)

		e := ent.(*DirEntry)

		assert.Equal(t, dir, e.dir)
		assert.Equal(t, filepath.Join(dir, "a"+Extension), e.script)

		path, data, err := ent.Script()
		require.NoError(t, err)

		assert.Equal(t, e.script, path)
		assert.Equal(t, "data", string(data))
	})

	t.Run("load Formula/name/name.star", func(t *testing.T) {
		sub := filepath.Join(dir, "Formula", "a")

		err := os.MkdirAll(sub, 0755)
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		ioutil.WriteFile(
			filepath.Join(sub, "a"+Extension),
			[]byte(`data`),
			0644)

		do, err := NewDirectory(dir)
		require.NoError(t, err)

		ent, err := do.Lookup("a")
		require.NoError(t, err)

		e := ent.(*DirEntry)

		assert.Equal(t, sub, e.dir)
		assert.Equal(t, filepath.Join(sub, "a"+Extension), e.script)

		names, err := do.Names()
		require.NoError(t, err)

		assert.Equal(t, []string{"a"}, names)
	})

	t.Run("reads the repo id from .repo-info.json", func(t *testing.T) {
		err := os.MkdirAll(dir, 0755)
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		ioutil.WriteFile(
			filepath.Join(dir, ".repo-info.json"),
			[]byte(`{"id": "github.com/rlister/homebrew-tap"}`),
			0644)

		do, err := NewDirectory(dir)
		require.NoError(t, err)

		assert.Equal(t, "github.com/rlister/homebrew-tap", do.Id())
	})

	t.Run("falls back to the directory name", func(t *testing.T) {
		err := os.MkdirAll(dir, 0755)
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		do, err := NewDirectory(dir)
		require.NoError(t, err)

		assert.Equal(t, "tap", do.Id())
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		err := os.MkdirAll(dir, 0755)
		require.NoError(t, err)
		defer os.RemoveAll(dir)

		do, err := NewDirectory(dir)
		require.NoError(t, err)

		_, err = do.Lookup("../a")
		assert.Equal(t, ErrNotFound, err)
	})
}

func TestGitRemoteRepoId(t *testing.T) {
	id, err := gitRemoteRepoId("git@github.com:rlister/let-me-in.git")
	require.NoError(t, err)

	assert.Equal(t, "github.com/rlister/let-me-in", id)

	id, err = gitRemoteRepoId("https://github.com/rlister/let-me-in.git")
	require.NoError(t, err)

	assert.Equal(t, "github.com/rlister/let-me-in", id)
}

func TestChain(t *testing.T) {
	top, err := ioutil.TempDir("", "chain")
	require.NoError(t, err)

	defer os.RemoveAll(top)

	ioutil.WriteFile(filepath.Join(top, "let-me-in"+Extension), []byte(`override`), 0644)

	d, err := NewDirectory(top)
	require.NoError(t, err)

	c := Chain{d, Builtin{}}

	t.Run("prefers earlier repos", func(t *testing.T) {
		ent, err := c.Lookup("let-me-in")
		require.NoError(t, err)

		_, data, err := ent.Script()
		require.NoError(t, err)

		assert.Equal(t, "override", string(data))
	})

	t.Run("falls through to the builtin formulas", func(t *testing.T) {
		ent, err := Chain{Builtin{}}.Lookup("let-me-in")
		require.NoError(t, err)

		assert.Equal(t, BuiltinId, ent.RepoId())
	})

	t.Run("reports missing formulas", func(t *testing.T) {
		_, err := c.Lookup("nope")
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("merges names", func(t *testing.T) {
		names, err := c.Names()
		require.NoError(t, err)

		assert.Equal(t, []string{"let-me-in"}, names)
	})
}
