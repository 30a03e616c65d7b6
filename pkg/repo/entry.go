package repo

type Entry interface {
	RepoId() string
	Script() (string, []byte, error)
}
