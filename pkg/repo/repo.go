package repo

import (
	"errors"

	"lab47.dev/letmein/pkg/homebrew"
)

const Extension = homebrew.Extension

var (
	ErrNotFound = errors.New("formula not found")
)

type Repo interface {
	Id() string
	Lookup(name string) (Entry, error)
	Names() ([]string, error)
}

func Open(path string) (Repo, error) {
	return NewDirectory(path)
}
