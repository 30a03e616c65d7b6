package ops

import "github.com/pkg/errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingDependency = errors.New("missing dependency")
	ErrNotInstalled      = errors.New("formula not installed")
	ErrTestFailed        = errors.New("formula test failed")
)

func track(err error) error {
	return errors.WithStack(err)
}
