package ops

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
)

type FormulaSelfTest struct {
	common
}

// Test runs the test step of f against the linked binary. A formula with
// no test step only checks that the binary is executable.
func (t *FormulaSelfTest) Test(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula) error {
	in := &Installed{common: t.common}

	r, err := in.Linked(ienv, f.Name)
	if err != nil {
		return err
	}

	bin := filepath.Join(ienv.KegPath(f.Name, r.Version), "bin", r.Binary)

	err = findExecutable(bin)
	if err != nil {
		return errors.Wrapf(ErrTestFailed, "%s: %s is not executable: %s", f.Name, bin, err)
	}

	if f.Test.Empty() {
		t.L().Debug("formula has no test step, binary is executable", "bin", bin)
		return nil
	}

	var buf bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, f.Test.Args...)
	cmd.Dir = ienv.Prefix

	err = runCmd(&buf, f.Name, cmd)

	GetUI(ctx).Out().Write(buf.Bytes())

	if err != nil {
		return errors.Wrapf(ErrTestFailed, "%s: %s", f.Name, err)
	}

	if f.Test.Expect != "" && !strings.Contains(buf.String(), f.Test.Expect) {
		return errors.Wrapf(ErrTestFailed, "%s: output did not contain %q", f.Name, f.Test.Expect)
	}

	return nil
}
