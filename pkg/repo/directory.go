package repo

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// Directory is a tap: a directory of formula scripts, optionally kept
// under a Formula subdirectory like homebrew taps.
type Directory struct {
	repoId   string
	rootPath string
	pkgPath  string
}

type repoInfo struct {
	Id string `json:"id"`
}

func NewDirectory(path string) (*Directory, error) {
	path = filepath.Clean(path)

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return nil, errors.Errorf("path is not a directory: %s", path)
	}

	rootPath := path

	for _, sub := range []string{"Formula", "formulas"} {
		pkgDir := filepath.Join(path, sub)

		if fi, err := os.Stat(pkgDir); err == nil && fi.IsDir() {
			path = pkgDir
			break
		}
	}

	d := &Directory{
		rootPath: rootPath,
		pkgPath:  path,
	}

	err = d.detectRepoId()
	if err != nil {
		return nil, err
	}

	return d, nil
}

var _ Repo = (*Directory)(nil)

func (d *Directory) Id() string {
	return d.repoId
}

func (d *Directory) detectRepoId() error {
	f, err := os.Open(filepath.Join(d.rootPath, ".repo-info.json"))
	if err == nil {
		defer f.Close()

		var ri repoInfo

		err = json.NewDecoder(f).Decode(&ri)
		if err != nil {
			return err
		}

		if ri.Id != "" {
			d.repoId = ri.Id
			return nil
		}
	}

	repo, err := git.PlainOpenWithOptions(d.rootPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err == nil {
		remote, err := repo.Remote("origin")
		if err == nil {
			urls := remote.Config().URLs
			if len(urls) != 0 {
				id, err := gitRemoteRepoId(urls[0])
				if err != nil {
					return err
				}

				d.repoId = id
				return nil
			}
		} else if err != git.ErrRemoteNotFound {
			return err
		}
	} else if err != git.ErrRepositoryNotExists {
		return err
	}

	// welp. I guess we'll use the directory base name

	d.repoId = filepath.Base(d.rootPath)

	return nil
}

type DirEntry struct {
	repoId string
	script string
	dir    string
}

func (e *DirEntry) Script() (string, []byte, error) {
	data, err := ioutil.ReadFile(e.script)
	return e.script, data, err
}

func (e *DirEntry) RepoId() string {
	return e.repoId
}

// Pulled over from net/http
func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }

func (d *Directory) Lookup(name string) (Entry, error) {
	if name == "" || containsDotDot(name) || strings.ContainsAny(name, `/\`) {
		return nil, ErrNotFound
	}

	possibles := []struct {
		path, dir string
	}{
		{
			path: filepath.Join(d.pkgPath, name+Extension),
			dir:  d.pkgPath,
		},
		{
			path: filepath.Join(d.pkgPath, name, name+Extension),
			dir:  filepath.Join(d.pkgPath, name),
		},
	}

	for _, x := range possibles {
		if _, err := os.Stat(x.path); err == nil {
			return &DirEntry{
				repoId: d.repoId,
				script: x.path,
				dir:    x.dir,
			}, nil
		}
	}

	return nil, ErrNotFound
}

func (d *Directory) Names() ([]string, error) {
	entries, err := ioutil.ReadDir(d.pkgPath)
	if err != nil {
		return nil, err
	}

	var names []string

	for _, ent := range entries {
		name := ent.Name()

		switch {
		case !ent.IsDir() && strings.HasSuffix(name, Extension):
			names = append(names, strings.TrimSuffix(name, Extension))
		case ent.IsDir():
			if _, err := os.Stat(filepath.Join(d.pkgPath, name, name+Extension)); err == nil {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)

	return names, nil
}
