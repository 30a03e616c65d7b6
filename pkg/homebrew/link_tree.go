package homebrew

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var linkedDirs = map[string]bool{
	"bin":     true,
	"sbin":    true,
	"etc":     true,
	"share":   true,
	"include": true,
	"lib":     true,
}

func relSymlink(oldname, newname string) error {
	prel, err := filepath.Rel(filepath.Dir(newname), oldname)
	if err != nil {
		return err
	}

	err = os.Symlink(prel, newname)
	if err != nil {
		return err
	}

	return nil
}

// LinksTo reports if target is a symlink resolving to path.
func LinksTo(target, path string) bool {
	lt, err := os.Readlink(target)
	if err != nil {
		return false
	}

	if !filepath.IsAbs(lt) {
		lt = filepath.Join(filepath.Dir(target), lt)
	}

	return filepath.Clean(lt) == filepath.Clean(path)
}

// LinkTree symlinks the files of a keg into targetRoot, creating any
// directories needed. Links that already point into the keg are left alone
// so relinking is a no-op. Existing files owned by something else are an
// error. The created links are returned.
func LinkTree(targetRoot, root string) ([]string, error) {
	var created []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		if !strings.ContainsRune(rel, filepath.Separator) {
			// skip toplevel files
			if !info.IsDir() {
				return nil
			}

			if !linkedDirs[rel] {
				return filepath.SkipDir
			}
		}

		target := filepath.Join(targetRoot, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if _, err := os.Lstat(target); err == nil {
			if LinksTo(target, path) {
				return nil
			}

			return errors.Errorf("refusing to overwrite existing file: %s", target)
		}

		err = relSymlink(path, target)
		if err != nil {
			return err
		}

		created = append(created, target)

		return nil
	})

	return created, err
}

// UnlinkTree removes the links in targetRoot that point into root.
func UnlinkTree(targetRoot, root string) ([]string, error) {
	var removed []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		target := filepath.Join(targetRoot, rel)

		if !LinksTo(target, path) {
			return nil
		}

		err = os.Remove(target)
		if err != nil {
			return err
		}

		removed = append(removed, target)

		return nil
	})

	return removed, err
}
