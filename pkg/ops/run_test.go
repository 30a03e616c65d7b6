package ops

import (
	"bytes"
	"io/ioutil"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/letmein/pkg/homebrew"
)

func TestLookPath(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "tool")
	require.NoError(t, ioutil.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

	plain := filepath.Join(dir, "data")
	require.NoError(t, ioutil.WriteFile(plain, []byte("x"), 0644))

	path, err := lookPath("tool", "/nonexistant:"+dir)
	require.NoError(t, err)

	assert.Equal(t, exe, path)

	_, err = lookPath("data", dir)
	assert.ErrorIs(t, err, ErrNotFound)

	path, err = lookPath(exe, "")
	require.NoError(t, err)

	assert.Equal(t, exe, path)
}

func TestRunCmd(t *testing.T) {
	var buf bytes.Buffer

	err := runCmd(&buf, "demo", exec.Command("/bin/sh", "-c", "echo out; echo err 1>&2"))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "demo │ out\n")
	assert.Contains(t, buf.String(), "demo │ err\n")

	err = runCmd(&buf, "demo", exec.Command("/bin/sh", "-c", "exit 3"))
	assert.Error(t, err)
}

func TestFormulaDeps(t *testing.T) {
	dir := t.TempDir()

	goBin := filepath.Join(dir, "go")
	require.NoError(t, ioutil.WriteFile(goBin, []byte("#!/bin/sh\n"), 0755))

	f := &homebrew.Formula{
		Name: "let-me-in",
		Dependencies: []homebrew.Dependency{
			{Name: "go", Phase: homebrew.PhaseBuild},
			{Name: "aws", Phase: homebrew.PhaseRuntime},
		},
	}

	var fd FormulaDeps

	deps, err := fd.Check(f, dir)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"go": goBin}, deps)

	f.Dependencies = append(f.Dependencies, homebrew.Dependency{Name: "make", Phase: homebrew.PhaseBuild})

	_, err = fd.Check(f, dir)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.Contains(t, err.Error(), "make")
}

func TestBuildEnv(t *testing.T) {
	ienv := &InstallEnv{Env: []string{"EXTRA=1"}}

	env := buildEnv(ienv, "/tmp/build", map[string]string{"go": "/opt/go/bin/go"})

	assert.Contains(t, env, "PATH=/opt/go/bin:/bin:/usr/bin")
	assert.Contains(t, env, "GOPATH=/tmp/build")
	assert.Contains(t, env, "GO111MODULE=off")
	assert.Contains(t, env, "GOCACHE=/tmp/build/.cache")
	assert.Equal(t, "EXTRA=1", env[len(env)-1])
}
