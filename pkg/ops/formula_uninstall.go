package ops

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
)

type FormulaUninstall struct {
	common
}

// Uninstall unlinks and removes every installed version of name.
func (u *FormulaUninstall) Uninstall(ctx context.Context, ienv *InstallEnv, name string) error {
	dir := filepath.Join(ienv.Cellar, name)

	versions, err := ioutil.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotInstalled, "%s", name)
		}

		return err
	}

	ui := GetUI(ctx)

	fz := &KegFreeze{common: u.common}

	for _, v := range versions {
		if !v.IsDir() {
			continue
		}

		keg := filepath.Join(dir, v.Name())

		removed, err := homebrew.UnlinkTree(ienv.Prefix, keg)
		if err != nil {
			return errors.Wrapf(err, "unlinking %s", keg)
		}

		u.L().Debug("unlinked keg", "keg", keg, "links", len(removed))

		err = fz.Thaw(keg)
		if err != nil {
			return err
		}

		err = os.RemoveAll(keg)
		if err != nil {
			return err
		}

		ui.Step("Uninstalled %s %s", name, v.Name())
	}

	return os.RemoveAll(dir)
}
