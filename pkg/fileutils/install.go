package fileutils

import (
	"context"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Install copies (or links) Pattern to Dest. Pattern may be a single path
// or a glob, in which case Dest is a directory receiving every match.
type Install struct {
	Ctx     context.Context
	L       hclog.Logger
	Pattern string
	Dest    string
	Linked  bool
	ModeOr  os.FileMode

	// Installed collects every file written.
	Installed []string
}

func (i *Install) shouldCancel() error {
	if i.Ctx == nil {
		return nil
	}

	select {
	case <-i.Ctx.Done():
		return i.Ctx.Err()
	default:
		return nil
	}
}

func (i *Install) Install() error {
	if i.L == nil {
		i.L = hclog.L()
	}

	if _, err := os.Stat(i.Pattern); err == nil {
		err = os.MkdirAll(filepath.Dir(i.Dest), 0755)
		if err != nil {
			return err
		}

		if i.Linked {
			return i.link(i.Pattern, i.Dest)
		}

		return i.copyEntry(i.Pattern, i.Dest)
	}

	entries, err := filepath.Glob(i.Pattern)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return errors.Errorf("nothing matched %s", i.Pattern)
	}

	baseDir := filepath.Dir(i.Pattern)

	err = os.MkdirAll(i.Dest, 0755)
	if err != nil {
		return err
	}

	for _, ent := range entries {
		rel, err := filepath.Rel(baseDir, ent)
		if err != nil {
			return err
		}

		target := filepath.Join(i.Dest, rel)

		if i.Linked {
			err = i.link(ent, target)
		} else {
			err = i.copyEntry(ent, target)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (i *Install) link(from, to string) error {
	i.L.Debug("symlink", "old", from, "new", to)

	oldRel, err := filepath.Rel(filepath.Dir(to), from)
	if err != nil {
		oldRel = from
	}

	os.Remove(to)

	return os.Symlink(oldRel, to)
}

// copyFile writes into a temp file next to to and renames it over to, so
// a binary that is currently executing can be replaced.
func (i *Install) copyFile(f *os.File, fi os.FileInfo, to string) error {
	tmp, err := ioutil.TempFile(filepath.Dir(to), "."+filepath.Base(to)+".")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	_, err = io.Copy(tmp, f)
	if err != nil {
		tmp.Close()
		return err
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	err = os.Chmod(tmp.Name(), fi.Mode().Perm()|i.ModeOr.Perm())
	if err != nil {
		return err
	}

	err = os.Rename(tmp.Name(), to)
	if err != nil {
		return err
	}

	i.Installed = append(i.Installed, to)

	return nil
}

func (i *Install) copyEntry(from, to string) error {
	if err := i.shouldCancel(); err != nil {
		return err
	}

	i.L.Trace("copy entry", "from", from, "to", to)

	f, err := os.Open(from)
	if err != nil {
		return err
	}

	defer f.Close()

	fi, err := os.Lstat(from)
	if err != nil {
		return err
	}

	defer func() {
		// fix the times
		os.Chtimes(to, time.Now(), fi.ModTime())
	}()

	switch fi.Mode() & os.ModeType {
	case 0: // regular file
		return i.copyFile(f, fi, to)
	case os.ModeDir:
		if _, err := os.Stat(to); err != nil {
			err = os.Mkdir(to, fi.Mode().Perm()|i.ModeOr.Perm())
			if err != nil {
				return err
			}
		}

		entries, err := f.Readdirnames(-1)
		if err != nil {
			if err == io.EOF {
				break
			}

			return err
		}

		sort.Strings(entries)

		for _, name := range entries {
			err = i.copyEntry(filepath.Join(from, name), filepath.Join(to, name))
			if err != nil {
				return err
			}
		}

	case os.ModeSymlink:
		link, err := os.Readlink(from)
		if err != nil {
			return err
		}

		os.Remove(to)

		return os.Symlink(link, to)
	}

	return nil
}
