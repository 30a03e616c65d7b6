package ops

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/hashicorp/go-getter"
	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
)

type FormulaFetch struct {
	common

	Downloader *homebrew.Downloader
}

func (ff *FormulaFetch) downloader() *homebrew.Downloader {
	if ff.Downloader == nil {
		ff.Downloader = &homebrew.Downloader{L: ff.L()}
	}

	return ff.Downloader
}

// Size asks the server how large the release archive of f is. It returns
// 0 when the archive is already cached and -1 when the server doesn't say.
func (ff *FormulaFetch) Size(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula) (int64, error) {
	if _, err := os.Stat(homebrew.CachePath(ienv.CacheDir, f.Url, f.Checksum)); err == nil {
		return 0, nil
	}

	return ff.downloader().Test(ctx, f.Url)
}

// Download fetches and verifies the release archive of f into the cache,
// returning its path.
func (ff *FormulaFetch) Download(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula) (string, error) {
	GetUI(ctx).DownloadInput(f.Url, f.Checksum)

	path, err := ff.downloader().Fetch(ctx, f.Url, f.Checksum, ienv.CacheDir)
	if err != nil {
		return "", err
	}

	ff.L().Debug("verified download", "path", path, "sum", f.Checksum.String())

	return path, nil
}

// Fetch places the source of f under dir/source and returns the directory
// builds should run in.
func (ff *FormulaFetch) Fetch(ctx context.Context, ienv *InstallEnv, f *homebrew.Formula, dir string) (string, error) {
	target := filepath.Join(dir, "source")

	if ienv.Head {
		return ff.cloneHead(ctx, f, target)
	}

	path, err := ff.Download(ctx, ienv, f)
	if err != nil {
		return "", err
	}

	err = ff.unpack(path, target)
	if err != nil {
		return "", err
	}

	return sourceRoot(target)
}

func (ff *FormulaFetch) cloneHead(ctx context.Context, f *homebrew.Formula, target string) (string, error) {
	if f.Head == "" {
		return "", errors.Errorf("%s has no head repository", f.Name)
	}

	GetUI(ctx).CloneHead(f.Head)

	_, err := git.PlainCloneContext(ctx, target, false, &git.CloneOptions{
		URL:   f.Head,
		Depth: 1,
	})
	if err != nil {
		return "", errors.Wrapf(err, "cloning %s", f.Head)
	}

	return target, nil
}

func decompressorFor(path string) (getter.Decompressor, bool) {
	var (
		archive     string
		matchingLen int
	)

	for k := range getter.Decompressors {
		if strings.HasSuffix(path, "."+k) && len(k) > matchingLen {
			archive = k
			matchingLen = len(k)
		}
	}

	dec, ok := getter.Decompressors[archive]
	return dec, ok
}

func (ff *FormulaFetch) unpack(path, target string) error {
	dec, ok := decompressorFor(path)
	if !ok {
		return errors.Errorf("unsupported archive type: %s", filepath.Base(path))
	}

	ff.L().Trace("unpacking", "path", path, "target", target)

	os.RemoveAll(target)

	err := dec.Decompress(target, path, true, 0)
	if err != nil {
		return errors.Wrapf(err, "unpacking %s", filepath.Base(path))
	}

	return nil
}

// sourceRoot descends into dir when it holds exactly one visible
// directory, the way release archives wrap their contents.
func sourceRoot(dir string) (string, error) {
	sf, err := ioutil.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		ent os.FileInfo
		cnt int
	)

	for _, e := range sf {
		if e.Name()[0] != '.' {
			cnt++
			ent = e
		}
	}

	if cnt == 1 && ent.IsDir() {
		return filepath.Join(dir, ent.Name()), nil
	}

	return dir, nil
}
