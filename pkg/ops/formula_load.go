package ops

import (
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
	"lab47.dev/letmein/pkg/repo"
)

type FormulaLoad struct {
	common

	Repo repo.Repo
}

// Load resolves name to a formula. A name ending in the formula extension
// that exists on disk is loaded directly, anything else is looked up in
// the configured repos.
func (l *FormulaLoad) Load(name string) (*homebrew.Formula, string, error) {
	if strings.HasSuffix(name, homebrew.Extension) {
		if _, err := os.Stat(name); err == nil {
			data, err := ioutil.ReadFile(name)
			if err != nil {
				return nil, "", err
			}

			f, err := homebrew.Load(l.L(), name, data)
			return f, "file", err
		}
	}

	if l.Repo == nil {
		l.Repo = repo.Builtin{}
	}

	ent, err := l.Repo.Lookup(name)
	if err != nil {
		return nil, "", err
	}

	path, data, err := ent.Script()
	if err != nil {
		return nil, "", errors.Wrapf(err, "reading formula %s", name)
	}

	l.L().Debug("loading formula", "name", name, "path", path, "repo", ent.RepoId())

	f, err := homebrew.Load(l.L(), path, data)
	if err != nil {
		return nil, "", err
	}

	return f, ent.RepoId(), nil
}
