package sumfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const AlgoB2 = "b2"

type hashedEntity struct {
	hash   []byte
	entity string
	algo   string
}

// Sumfile holds "algo:base58hash entity" lines, sorted by entity.
type Sumfile struct {
	entities []hashedEntity
}

func (s *Sumfile) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}

		if len(bytes.TrimSpace(line)) > 0 {
			if perr := s.parseLine(line); perr != nil {
				return perr
			}
		}

		if err == io.EOF {
			break
		}
	}

	sort.Slice(s.entities, func(i, j int) bool {
		return s.entities[i].entity < s.entities[j].entity
	})

	return nil
}

func (s *Sumfile) parseLine(line []byte) error {
	colon := bytes.IndexByte(line, ':')
	if colon == -1 {
		return nil
	}

	space := bytes.IndexByte(line, ' ')
	if space == -1 || space < colon {
		return nil
	}

	b, err := base58.Decode(string(line[colon+1 : space]))
	if err != nil {
		return errors.Wrapf(err, "decoding sum line %q", bytes.TrimSpace(line))
	}

	s.entities = append(s.entities, hashedEntity{
		algo:   string(line[:colon]),
		hash:   b,
		entity: string(bytes.TrimSpace(line[space+1:])),
	})

	return nil
}

func (s *Sumfile) Add(entity, algo string, h []byte) (string, error) {
	s.entities = append(s.entities, hashedEntity{
		algo:   algo,
		hash:   h,
		entity: entity,
	})

	sort.Slice(s.entities, func(i, j int) bool {
		return s.entities[i].entity < s.entities[j].entity
	})

	return algo + ":" + base58.Encode(h), nil
}

func (s *Sumfile) Save(w io.Writer) error {
	for _, he := range s.entities {
		sh := base58.Encode(he.hash)
		if _, err := fmt.Fprintf(w, "%s:%s %s\n", he.algo, sh, he.entity); err != nil {
			return err
		}
	}

	return nil
}

func (s *Sumfile) Lookup(entity string) (string, []byte, bool) {
	idx := sort.Search(len(s.entities), func(i int) bool {
		return s.entities[i].entity >= entity
	})

	if idx == len(s.entities) {
		return "", nil, false
	}

	if s.entities[idx].entity == entity {
		return s.entities[idx].algo, s.entities[idx].hash, true
	}

	return "", nil, false
}

func (s *Sumfile) Entities() []string {
	out := make([]string, len(s.entities))

	for i, he := range s.entities {
		out[i] = he.entity
	}

	return out
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	h, _ := blake2b.New256(nil)

	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// SumDir records a b2 sum for every regular file under dir, keyed by its
// slash separated relative path. Paths in skip are ignored.
func SumDir(dir string, skip ...string) (*Sumfile, error) {
	ignore := map[string]bool{}
	for _, s := range skip {
		ignore[s] = true
	}

	var sf Sumfile

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if ignore[rel] {
			return nil
		}

		h, err := hashFile(path)
		if err != nil {
			return err
		}

		sf.entities = append(sf.entities, hashedEntity{algo: AlgoB2, hash: h, entity: rel})

		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(sf.entities, func(i, j int) bool {
		return sf.entities[i].entity < sf.entities[j].entity
	})

	return &sf, nil
}

// Verify rehashes the recorded entities relative to dir and returns the
// ones that are missing or changed.
func (s *Sumfile) Verify(dir string) ([]string, error) {
	var bad []string

	for _, he := range s.entities {
		if he.algo != AlgoB2 {
			return nil, errors.Errorf("unsupported sum type %s for %s", he.algo, he.entity)
		}

		h, err := hashFile(filepath.Join(dir, filepath.FromSlash(he.entity)))
		if err != nil {
			if os.IsNotExist(err) {
				bad = append(bad, he.entity)
				continue
			}

			return nil, err
		}

		if !bytes.Equal(h, he.hash) {
			bad = append(bad, he.entity)
		}
	}

	return bad, nil
}
