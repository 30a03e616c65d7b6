package ops

import (
	"sort"

	"github.com/pkg/errors"
	"lab47.dev/letmein/pkg/homebrew"
)

type FormulaDeps struct {
	common
}

// Check finds every build dependency of f on path, returning the
// executable found for each.
func (d *FormulaDeps) Check(f *homebrew.Formula, path string) (map[string]string, error) {
	found := map[string]string{}

	var missing []string

	for _, dep := range f.BuildDependencies() {
		exe, err := lookPath(dep.Name, path)
		if err != nil {
			d.L().Debug("dependency not found", "name", dep.Name, "error", err)
			missing = append(missing, dep.Name)
			continue
		}

		found[dep.Name] = exe
	}

	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingDependency, "%s needs %v on PATH", f.Name, missing)
	}

	return found, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))

	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
