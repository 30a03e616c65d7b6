package homebrew

import (
	"runtime"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

const loadKey = "formula"

type loadCtx struct {
	path    string
	formula *Formula
}

// Load evaluates the formula script in data. The script must call formula()
// exactly once.
func Load(L hclog.Logger, path string, data []byte) (*Formula, error) {
	if L == nil {
		L = hclog.L()
	}

	lctx := &loadCtx{path: path}

	thread := &starlark.Thread{
		Name: "formula:" + path,
		Print: func(_ *starlark.Thread, msg string) {
			L.Info(msg, "script", path)
		},
	}

	thread.SetLocal(loadKey, lctx)

	predeclared := starlark.StringDict{
		"OS":      starlark.String(runtime.GOOS),
		"ARCH":    starlark.String(runtime.GOARCH),
		"formula": starlark.NewBuiltin("formula", formulaFn),
	}

	_, err := starlark.ExecFile(thread, path, data, predeclared)
	if err != nil {
		if ee, ok := err.(*starlark.EvalError); ok {
			return nil, errors.Errorf("failed to evaluate %s:\n%s", path, ee.Backtrace())
		}

		return nil, errors.Wrapf(err, "failed to evaluate %s", path)
	}

	if lctx.formula == nil {
		return nil, errors.Wrapf(ErrInvalidFormula, "%s never called formula()", path)
	}

	lctx.formula.Path = path

	if err := lctx.formula.Validate(); err != nil {
		return nil, err
	}

	return lctx.formula, nil
}

func stringList(field string, l *starlark.List) ([]string, error) {
	if l == nil {
		return nil, nil
	}

	out := make([]string, 0, l.Len())

	for i := 0; i < l.Len(); i++ {
		s, ok := starlark.AsString(l.Index(i))
		if !ok {
			return nil, errors.Errorf("%s: expected strings, found %s", field, l.Index(i).Type())
		}

		out = append(out, s)
	}

	return out, nil
}

func dependencies(d *starlark.Dict) ([]Dependency, error) {
	if d == nil {
		return nil, nil
	}

	var deps []Dependency

	for _, item := range d.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, errors.Errorf("depends_on: keys must be strings, found %s", item[0].Type())
		}

		phase, ok := starlark.AsString(item[1])
		if !ok {
			return nil, errors.Errorf("depends_on: %s phase must be a string", name)
		}

		deps = append(deps, Dependency{Name: name, Phase: Phase(phase)})
	}

	sort.Slice(deps, func(i, j int) bool {
		return deps[i].Name < deps[j].Name
	})

	return deps, nil
}

func formulaFn(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	lctx, ok := thread.Local(loadKey).(*loadCtx)
	if !ok {
		return nil, errors.New("formula() called outside of a formula load")
	}

	if lctx.formula != nil {
		return nil, errors.New("formula() may only be called once per file")
	}

	var (
		f Formula

		sha256, b2, version, expect string

		deps            *starlark.Dict
		goGet, testArgs *starlark.List
	)

	if err := starlark.UnpackArgs(
		b.Name(), args, kwargs,
		"name", &f.Name,
		"url", &f.Url,
		"bin", &f.Install.Binary,
		"build", &f.Install.Entry,
		"desc?", &f.Description,
		"homepage?", &f.Homepage,
		"head?", &f.Head,
		"version?", &version,
		"sha256?", &sha256,
		"b2?", &b2,
		"depends_on?", &deps,
		"go_get?", &goGet,
		"test_args?", &testArgs,
		"test_expect?", &expect,
	); err != nil {
		return nil, err
	}

	var err error

	switch {
	case sha256 != "" && b2 != "":
		return nil, errors.New("formula: only one of sha256 or b2 may be given")
	case sha256 != "":
		f.Checksum, err = ParseChecksum(AlgoSHA256, sha256)
	case b2 != "":
		f.Checksum, err = ParseChecksum(AlgoB2, b2)
	}

	if err != nil {
		return nil, err
	}

	f.Dependencies, err = dependencies(deps)
	if err != nil {
		return nil, err
	}

	f.Install.GoGet, err = stringList("go_get", goGet)
	if err != nil {
		return nil, err
	}

	targs, err := stringList("test_args", testArgs)
	if err != nil {
		return nil, err
	}

	if len(targs) > 0 || expect != "" {
		f.Test = &TestStep{Args: targs, Expect: expect}
	}

	if version != "" {
		f.SetVersion(version)
	}

	lctx.formula = &f

	return starlark.None, nil
}
