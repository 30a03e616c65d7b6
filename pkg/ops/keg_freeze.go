package ops

import (
	"os"
	"path/filepath"
)

type KegFreeze struct {
	common
}

// Freeze drops write permission from everything in the keg at dir.
func (k *KegFreeze) Freeze(dir string) error {
	var dirs []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			dirs = append(dirs, path)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		return os.Chmod(path, info.Mode().Perm()&0555)
	})
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		os.Chmod(dir, 0555)
	}

	k.L().Trace("froze keg", "dir", dir, "dirs", len(dirs))

	return nil
}

// Thaw makes the directories of a frozen keg writable again so it can be
// removed. Files are left read-only.
func (k *KegFreeze) Thaw(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	os.Chmod(dir, 0755)

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return os.Chmod(path, 0755)
		}

		return nil
	})
}
