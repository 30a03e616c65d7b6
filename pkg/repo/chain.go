package repo

import (
	"sort"

	"github.com/pkg/errors"
)

// Chain looks formulas up in each repo in order.
type Chain []Repo

func (c Chain) Id() string {
	return "chain"
}

func (c Chain) Lookup(name string) (Entry, error) {
	for _, r := range c {
		ent, err := r.Lookup(name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}

			return nil, errors.Wrapf(err, "looking up %s in %s", name, r.Id())
		}

		return ent, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "%s", name)
}

func (c Chain) Names() ([]string, error) {
	seen := map[string]struct{}{}

	var out []string

	for _, r := range c {
		names, err := r.Names()
		if err != nil {
			return nil, err
		}

		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}

			seen[n] = struct{}{}
			out = append(out, n)
		}
	}

	sort.Strings(out)

	return out, nil
}
