package repo

import "lab47.dev/letmein/pkg/homebrew"

const BuiltinId = "builtin"

// Builtin serves the formulas compiled into the binary.
type Builtin struct{}

var _ Repo = Builtin{}

type builtinEntry struct {
	name string
}

func (e *builtinEntry) RepoId() string {
	return BuiltinId
}

func (e *builtinEntry) Script() (string, []byte, error) {
	path, data, ok := homebrew.Builtin(e.name)
	if !ok {
		return "", nil, ErrNotFound
	}

	return path, data, nil
}

func (Builtin) Id() string {
	return BuiltinId
}

func (Builtin) Lookup(name string) (Entry, error) {
	if _, _, ok := homebrew.Builtin(name); !ok {
		return nil, ErrNotFound
	}

	return &builtinEntry{name: name}, nil
}

func (Builtin) Names() ([]string, error) {
	return homebrew.BuiltinNames(), nil
}
