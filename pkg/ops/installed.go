package ops

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/data"
	"lab47.dev/letmein/pkg/homebrew"
)

type Installed struct {
	common
}

// Kegs returns the receipt of every keg in the cellar, sorted by name and
// version. Keg dirs without a receipt are skipped.
func (in *Installed) Kegs(ienv *InstallEnv) ([]*data.Receipt, error) {
	names, err := ioutil.ReadDir(ienv.Cellar)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var out []*data.Receipt

	for _, n := range names {
		if !n.IsDir() {
			continue
		}

		rs, err := in.Versions(ienv, n.Name())
		if err != nil {
			return nil, err
		}

		out = append(out, rs...)
	}

	return out, nil
}

// Versions returns the receipts of the installed versions of name, oldest
// first.
func (in *Installed) Versions(ienv *InstallEnv, name string) ([]*data.Receipt, error) {
	versions, err := ioutil.ReadDir(filepath.Join(ienv.Cellar, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var out []*data.Receipt

	for _, v := range versions {
		if !v.IsDir() {
			continue
		}

		r, err := readReceipt(filepath.Join(ienv.Cellar, name, v.Name()))
		if err != nil {
			in.L().Debug("skipping keg without receipt", "name", name, "version", v.Name(), "error", err)
			continue
		}

		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		return homebrew.VersionLess(out[i].Version, out[j].Version)
	})

	return out, nil
}

// Linked returns the receipt of the version of name currently linked into
// the prefix.
func (in *Installed) Linked(ienv *InstallEnv, name string) (*data.Receipt, error) {
	rs, err := in.Versions(ienv, name)
	if err != nil {
		return nil, err
	}

	for _, r := range rs {
		bin := filepath.Join(ienv.Prefix, "bin", r.Binary)
		if homebrew.LinksTo(bin, filepath.Join(ienv.KegPath(name, r.Version), "bin", r.Binary)) {
			return r, nil
		}
	}

	return nil, errors.Wrapf(ErrNotInstalled, "%s", name)
}
