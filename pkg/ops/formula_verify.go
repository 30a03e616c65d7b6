package ops

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
	"lab47.dev/letmein/pkg/sumfile"
)

type FormulaVerify struct {
	common

	Downloader *homebrew.Downloader
}

// Source downloads the release archive of f without caching it and
// compares its digest with the one the formula declares. The computed
// checksum is returned either way.
func (v *FormulaVerify) Source(ctx context.Context, f *homebrew.Formula) (homebrew.Checksum, error) {
	d := v.Downloader
	if d == nil {
		d = &homebrew.Downloader{L: v.L()}
	}

	actual, sz, err := d.Digest(ctx, f.Url, f.Checksum)
	if err != nil {
		return homebrew.Checksum{}, err
	}

	v.L().Debug("computed source digest", "url", f.Url, "size", sz, "sum", actual.String())

	if !bytes.Equal(actual.Bytes(), f.Checksum.Bytes()) {
		return actual, errors.Wrapf(homebrew.ErrChecksumMismatch,
			"%s: expected %s, got %s", f.Url, f.Checksum, actual)
	}

	return actual, nil
}

// Keg rehashes the files of an installed keg against its SUMS file and
// returns the ones that changed.
func (v *FormulaVerify) Keg(kegDir string) ([]string, error) {
	f, err := os.Open(filepath.Join(kegDir, SumsName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotInstalled, "no sums in %s", kegDir)
		}

		return nil, err
	}

	defer f.Close()

	var sf sumfile.Sumfile

	err = sf.Load(f)
	if err != nil {
		return nil, err
	}

	return sf.Verify(kegDir)
}
