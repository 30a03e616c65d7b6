package homebrew

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	AlgoSHA256 = "sha256"
	AlgoB2     = "b2"
)

var (
	ErrChecksumMismatch = errors.New("mismatched checksum of data")
	ErrUnknownAlgo      = errors.New("unknown sum type")
)

type Checksum struct {
	Algo  string `json:"algo"`
	Value string `json:"value"`
}

func ParseChecksum(algo, value string) (Checksum, error) {
	cs := Checksum{Algo: algo, Value: value}

	if _, err := cs.Hasher(); err != nil {
		return Checksum{}, err
	}

	b, err := hex.DecodeString(value)
	if err != nil {
		return Checksum{}, errors.Wrapf(err, "decoding %s sum", algo)
	}

	if len(b) != 32 {
		return Checksum{}, errors.Errorf("%s sum must be 32 bytes, got %d", algo, len(b))
	}

	return cs, nil
}

func (c Checksum) Empty() bool {
	return c.Value == ""
}

func (c Checksum) Hasher() (hash.Hash, error) {
	switch c.Algo {
	case AlgoSHA256, "":
		return sha256.New(), nil
	case AlgoB2:
		return blake2b.New256(nil)
	default:
		return nil, errors.Wrapf(ErrUnknownAlgo, "%s", c.Algo)
	}
}

func (c Checksum) Bytes() []byte {
	b, err := hex.DecodeString(c.Value)
	if err != nil {
		return nil
	}

	return b
}

func (c Checksum) Matches(h hash.Hash) bool {
	b, err := hex.DecodeString(c.Value)
	if err != nil {
		return false
	}

	return bytes.Equal(b, h.Sum(nil))
}

func (c Checksum) String() string {
	algo := c.Algo
	if algo == "" {
		algo = AlgoSHA256
	}

	return algo + ":" + c.Value
}

// Actual returns a checksum of the same algorithm holding the digest
// accumulated in h.
func (c Checksum) Actual(h hash.Hash) Checksum {
	return Checksum{Algo: c.Algo, Value: hex.EncodeToString(h.Sum(nil))}
}
