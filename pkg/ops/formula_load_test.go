package ops

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/letmein/pkg/repo"
)

func TestFormulaLoad(t *testing.T) {
	t.Run("finds builtin formulas by name", func(t *testing.T) {
		var fl FormulaLoad
		fl.SetLogger(hclog.NewNullLogger())

		f, repoId, err := fl.Load("let-me-in")
		require.NoError(t, err)

		assert.Equal(t, "let-me-in", f.Name)
		assert.Equal(t, repo.BuiltinId, repoId)
	})

	t.Run("loads a formula file from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.star")

		err := ioutil.WriteFile(path, []byte(`
formula(
    name = "x",
    url = "https://example.com/x/archive/v1.2.tar.gz",
    sha256 = "694f6b51134dfa2bf2c8d316283c525d24e51d0b52ef501668045359ea7a0808",
    build = "main.go",
    bin = "x",
)
`), 0644)
		require.NoError(t, err)

		var fl FormulaLoad
		fl.SetLogger(hclog.NewNullLogger())

		f, repoId, err := fl.Load(path)
		require.NoError(t, err)

		assert.Equal(t, "x", f.Name)
		assert.Equal(t, "1.2", f.Version())
		assert.Equal(t, "file", repoId)
	})

	t.Run("reports unknown formulas", func(t *testing.T) {
		var fl FormulaLoad
		fl.SetLogger(hclog.NewNullLogger())

		_, _, err := fl.Load("no-such-formula")
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})
}
