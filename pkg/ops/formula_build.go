package ops

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
	"lab47.dev/letmein/pkg/progress"
)

type FormulaBuild struct {
	common
}

// buildEnv is the environment every toolchain call of a build sees. GOPATH
// is the build dir itself so go get populates it and nothing outside the
// build dir is touched.
func buildEnv(ienv *InstallEnv, buildDir string, deps map[string]string) []string {
	var path []string

	seen := map[string]bool{}

	for _, name := range sortedKeys(deps) {
		dir := filepath.Dir(deps[name])
		if !seen[dir] {
			seen[dir] = true
			path = append(path, dir)
		}
	}

	path = append(path, "/bin", "/usr/bin")

	env := []string{
		"HOME=" + buildDir,
		"PATH=" + strings.Join(path, string(filepath.ListSeparator)),
		"GOPATH=" + buildDir,
		"GOCACHE=" + filepath.Join(buildDir, ".cache"),
		"GO111MODULE=off",
		"CGO_ENABLED=0",
	}

	for _, k := range []string{"HTTP_PROXY", "HTTPS_PROXY", "NO_PROXY", "http_proxy", "https_proxy", "no_proxy"} {
		if v, ok := os.LookupEnv(k); ok {
			env = append(env, k+"="+v)
		}
	}

	return append(env, ienv.Env...)
}

// Build runs the install step of f in srcDir: go get for each listed
// import path, then go build of the entry point. The path of the built
// binary is returned.
func (b *FormulaBuild) Build(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula, buildDir, srcDir string, deps map[string]string) (string, error) {
	ui := GetUI(ctx)
	log := b.step("build", "formula", f.Name)

	goBin, ok := deps["go"]
	if !ok {
		var err error

		goBin, err = lookPath("go", ienv.Path)
		if err != nil {
			return "", errors.Wrapf(ErrMissingDependency, "%s: go toolchain not found", f.Name)
		}

		deps = map[string]string{"go": goBin}
	}

	env := buildEnv(ienv, buildDir, deps)

	run := func(args ...string) error {
		log.Debug("system", "args", args, "dir", srcDir)

		cmd := exec.CommandContext(ctx, goBin, args...)
		cmd.Env = env
		cmd.Dir = srcDir

		return runCmd(ui.Out(), f.Name, cmd)
	}

	bar := progress.Count(ctx, int64(len(f.Install.GoGet)+1), "Building")
	defer bar.Close()

	for _, pkg := range f.Install.GoGet {
		ui.Step("go get %s", pkg)
		bar.On("go get " + pkg)

		if err := run("get", pkg); err != nil {
			return "", err
		}

		bar.Tick()
	}

	out := filepath.Join(srcDir, f.Install.Binary)

	ui.Step("go build %s", f.Install.Entry)
	bar.On("go build " + f.Install.Entry)

	if err := run("build", "-o", out, f.Install.Entry); err != nil {
		return "", err
	}

	bar.Tick()

	if err := findExecutable(out); err != nil {
		return "", errors.Wrapf(err, "%s: build did not produce %s", f.Name, f.Install.Binary)
	}

	return out, nil
}
