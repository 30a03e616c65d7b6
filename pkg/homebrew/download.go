package homebrew

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/cleanhttp"
	"lab47.dev/letmein/pkg/progress"
)

type Downloader struct {
	L      hclog.Logger
	Client *http.Client
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}

	return cleanhttp.DefaultClient
}

func (d *Downloader) log() hclog.Logger {
	if d.L != nil {
		return d.L
	}

	return hclog.L()
}

// Test returns the size the server reports for url, or -1 when unknown.
func (d *Downloader) Test(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "HEAD", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, errors.Errorf("HEAD %s: %s", url, resp.Status)
	}

	return resp.ContentLength, nil
}

func (d *Downloader) downloadTo(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, errors.Errorf("GET %s: %s", url, resp.Status)
	}

	bar := progress.Bytes(ctx, resp.ContentLength, "Downloading")
	defer bar.Close()

	return io.Copy(io.MultiWriter(w, bar), resp.Body)
}

// CachePath is where the archive for url with the given checksum is kept
// inside root.
func CachePath(root, url string, sum Checksum) string {
	ext := ArchiveExt(url)
	if ext == "" {
		ext = ".download"
	}

	if !sum.Empty() {
		return filepath.Join(root, sum.Value+ext)
	}

	h := sha1.New()
	fmt.Fprintln(h, url)

	return filepath.Join(root, hex.EncodeToString(h.Sum(nil))+ext)
}

func cached(path string, sum Checksum) bool {
	r, err := os.Open(path)
	if err != nil {
		return false
	}

	defer r.Close()

	h, err := sum.Hasher()
	if err != nil {
		return false
	}

	if _, err := io.Copy(h, r); err != nil {
		return false
	}

	return sum.Matches(h)
}

// Fetch downloads url into dir and verifies it against sum. A file already
// present in dir is reused only if it still matches. On mismatch the
// download is removed and the returned error wraps ErrChecksumMismatch.
func (d *Downloader) Fetch(ctx context.Context, url string, sum Checksum, dir string) (string, error) {
	if sum.Empty() {
		return "", errors.Errorf("refusing to download %s without a checksum", url)
	}

	h, err := sum.Hasher()
	if err != nil {
		return "", err
	}

	path := CachePath(dir, url, sum)

	if cached(path, sum) {
		d.log().Debug("using cached download", "url", url, "path", path)
		return path, nil
	}

	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}

	tmp := path + ".incomplete"

	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}

	defer os.Remove(tmp)

	d.log().Debug("downloading", "url", url, "path", path)

	sz, err := d.downloadTo(ctx, url, io.MultiWriter(f, h))
	f.Close()

	if err != nil {
		return "", errors.Wrapf(err, "downloading %s", url)
	}

	if !sum.Matches(h) {
		return "", errors.Wrapf(ErrChecksumMismatch,
			"%s: expected %s, got %s", url, sum, sum.Actual(h))
	}

	d.log().Debug("validated checksum", "sum", sum.String(), "size", sz)

	err = os.Rename(tmp, path)
	if err != nil {
		return "", err
	}

	return path, nil
}

// Digest downloads url without keeping it and returns its checksum using
// the algorithm of like.
func (d *Downloader) Digest(ctx context.Context, url string, like Checksum) (Checksum, int64, error) {
	h, err := like.Hasher()
	if err != nil {
		return Checksum{}, 0, err
	}

	sz, err := d.downloadTo(ctx, url, h)
	if err != nil {
		return Checksum{}, 0, errors.Wrapf(err, "downloading %s", url)
	}

	algo := like.Algo
	if algo == "" {
		algo = AlgoSHA256
	}

	return Checksum{Algo: algo, Value: hex.EncodeToString(h.Sum(nil))}, sz, nil
}
