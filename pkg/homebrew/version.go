package homebrew

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	version "github.com/hashicorp/go-version"
)

var archiveExts = []string{
	".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz", ".zip", ".tar",
}

var versionRe = regexp.MustCompile(`(?:^|[-_.v])v?(\d+(?:\.\d+)+(?:[-.]?(?:alpha|beta|rc|pre)\.?\d*)?)$`)

// VersionFromURL works out a version from an archive url in the way
// github archive and release links are laid out, eg
// https://github.com/rlister/let-me-in/archive/v0.0.2.tar.gz => 0.0.2
func VersionFromURL(u string) string {
	p := u

	if pu, err := url.Parse(u); err == nil && pu.Path != "" {
		p = pu.Path
	}

	base := path.Base(p)

	for _, ext := range archiveExts {
		if strings.HasSuffix(base, ext) {
			base = strings.TrimSuffix(base, ext)
			break
		}
	}

	m := versionRe.FindStringSubmatch(base)
	if m == nil {
		return ""
	}

	return m[1]
}

// ArchiveExt returns the archive extension of u, or the empty string.
func ArchiveExt(u string) string {
	p := u

	if pu, err := url.Parse(u); err == nil && pu.Path != "" {
		p = pu.Path
	}

	for _, ext := range archiveExts {
		if strings.HasSuffix(p, ext) {
			return ext
		}
	}

	return ""
}

// VersionLess orders installed versions. Dotted numeric versions
// compare numerically, anything else (HEAD) sorts after them by name.
func VersionLess(a, b string) bool {
	va, aerr := version.NewVersion(a)
	vb, berr := version.NewVersion(b)

	switch {
	case aerr == nil && berr == nil:
		if va.Equal(vb) {
			return a < b
		}

		return va.LessThan(vb)
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}
