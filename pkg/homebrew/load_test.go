package homebrew

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	L := hclog.New(&hclog.LoggerOptions{Level: hclog.Info})

	t.Run("loads the builtin let-me-in formula", func(t *testing.T) {
		path, data, ok := Builtin("let-me-in")
		require.True(t, ok)

		f, err := Load(L, path, data)
		require.NoError(t, err)

		assert.Equal(t, "let-me-in", f.Name)
		assert.Equal(t, "Add my IP to AWS security group(s)", f.Description)
		assert.Equal(t, "https://github.com/rlister/let-me-in", f.Homepage)
		assert.Equal(t, "https://github.com/rlister/let-me-in/archive/v0.0.2.tar.gz", f.Url)
		assert.Equal(t, AlgoSHA256, f.Checksum.Algo)
		assert.Equal(t, "694f6b51134dfa2bf2c8d316283c525d24e51d0b52ef501668045359ea7a0808", f.Checksum.Value)
		assert.Equal(t, "0.0.2", f.Version())

		assert.Equal(t, []Dependency{{Name: "go", Phase: PhaseBuild}}, f.Dependencies)
		assert.Equal(t, f.Dependencies, f.BuildDependencies())

		assert.Equal(t, []string{
			"github.com/aws/aws-sdk-go/aws",
			"github.com/aws/aws-sdk-go/aws/awserr",
			"github.com/aws/aws-sdk-go/service/ec2",
		}, f.Install.GoGet)

		assert.Equal(t, "let-me-in.go", f.Install.Entry)
		assert.Equal(t, "let-me-in", f.Install.Binary)

		assert.True(t, f.Test.Empty())
	})

	t.Run("lists builtin formulas", func(t *testing.T) {
		assert.Contains(t, BuiltinNames(), "let-me-in")
	})

	t.Run("honors explicit versions and test steps", func(t *testing.T) {
		f, err := Load(L, "x.star", []byte(`
formula(
    name = "x",
    url = "https://example.com/x/archive/main.tar.gz",
    version = "9.9",
    b2 = "` + "00000000000000000000000000000000000000000000000000000000000000ff" + `",
    build = "main.go",
    bin = "x",
    test_args = ["-v"],
    test_expect = "x 9.9",
)
`))
		require.NoError(t, err)

		assert.Equal(t, "9.9", f.Version())
		assert.Equal(t, AlgoB2, f.Checksum.Algo)
		assert.Equal(t, &TestStep{Args: []string{"-v"}, Expect: "x 9.9"}, f.Test)
		assert.Equal(t, "x.star", f.Path)
	})

	t.Run("requires formula to be called", func(t *testing.T) {
		_, err := Load(L, "empty.star", []byte(`x = 1`))
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrInvalidFormula)
	})

	t.Run("rejects a second formula call", func(t *testing.T) {
		src := `
formula(name = "a", url = "https://e/a-1.0.tgz", sha256 = "` + zeros + `", build = "a.go", bin = "a")
formula(name = "b", url = "https://e/b-1.0.tgz", sha256 = "` + zeros + `", build = "b.go", bin = "b")
`
		_, err := Load(L, "two.star", []byte(src))
		require.Error(t, err)

		assert.Contains(t, err.Error(), "only be called once")
	})

	t.Run("validates required fields", func(t *testing.T) {
		_, err := Load(L, "nosum.star", []byte(`
formula(name = "a", url = "https://e/a-1.0.tgz", build = "a.go", bin = "a")
`))
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrInvalidFormula)
		assert.Contains(t, err.Error(), "sha256")
	})

	t.Run("rejects both sum types", func(t *testing.T) {
		_, err := Load(L, "both.star", []byte(`
formula(name = "a", url = "https://e/a-1.0.tgz", sha256 = "`+zeros+`", b2 = "`+zeros+`", build = "a.go", bin = "a")
`))
		require.Error(t, err)
	})

	t.Run("rejects unknown dependency phases", func(t *testing.T) {
		_, err := Load(L, "phase.star", []byte(`
formula(name = "a", url = "https://e/a-1.0.tgz", sha256 = "`+zeros+`", build = "a.go", bin = "a", depends_on = {"go": "sometimes"})
`))
		require.Error(t, err)

		assert.ErrorIs(t, err, ErrInvalidFormula)
	})

	t.Run("reports script errors", func(t *testing.T) {
		_, err := Load(L, "bad.star", []byte(`formula(name = 1)`))
		require.Error(t, err)

		assert.Contains(t, err.Error(), "bad.star")
	})
}

const zeros = "0000000000000000000000000000000000000000000000000000000000000000"
