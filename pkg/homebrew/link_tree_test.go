package homebrew

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkTree(t *testing.T) {
	root, err := ioutil.TempDir("", "linktree")
	require.NoError(t, err)

	defer os.RemoveAll(root)

	keg := filepath.Join(root, "Cellar", "let-me-in", "0.0.2")
	prefix := filepath.Join(root, "prefix")

	require.NoError(t, os.MkdirAll(filepath.Join(keg, "bin"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(keg, "bin", "let-me-in"), []byte("bin"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(keg, "INSTALL_RECEIPT.json"), []byte("{}"), 0644))

	t.Run("links bin into the prefix", func(t *testing.T) {
		created, err := LinkTree(prefix, keg)
		require.NoError(t, err)

		target := filepath.Join(prefix, "bin", "let-me-in")

		assert.Equal(t, []string{target}, created)

		data, err := ioutil.ReadFile(target)
		require.NoError(t, err)

		assert.Equal(t, "bin", string(data))

		_, err = os.Lstat(filepath.Join(prefix, "INSTALL_RECEIPT.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("relinking is a no-op", func(t *testing.T) {
		created, err := LinkTree(prefix, keg)
		require.NoError(t, err)

		assert.Empty(t, created)
	})

	t.Run("refuses to clobber foreign files", func(t *testing.T) {
		other := filepath.Join(root, "other")
		require.NoError(t, os.MkdirAll(filepath.Join(other, "bin"), 0755))
		require.NoError(t, ioutil.WriteFile(filepath.Join(other, "bin", "let-me-in"), []byte("x"), 0755))

		_, err := LinkTree(prefix, other)
		assert.Error(t, err)
	})

	t.Run("unlinks only links into the keg", func(t *testing.T) {
		removed, err := UnlinkTree(prefix, keg)
		require.NoError(t, err)

		assert.Equal(t, []string{filepath.Join(prefix, "bin", "let-me-in")}, removed)

		removed, err = UnlinkTree(prefix, keg)
		require.NoError(t, err)

		assert.Empty(t, removed)
	})
}
