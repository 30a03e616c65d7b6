package homebrew

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestChecksum(t *testing.T) {
	data := []byte("let me in")

	t.Run("matches sha256 digests", func(t *testing.T) {
		sum := sha256.Sum256(data)

		cs, err := ParseChecksum(AlgoSHA256, hex.EncodeToString(sum[:]))
		require.NoError(t, err)

		h, err := cs.Hasher()
		require.NoError(t, err)

		h.Write(data)

		assert.True(t, cs.Matches(h))

		h.Write([]byte("!"))

		assert.False(t, cs.Matches(h))
	})

	t.Run("matches b2 digests", func(t *testing.T) {
		sum := blake2b.Sum256(data)

		cs, err := ParseChecksum(AlgoB2, hex.EncodeToString(sum[:]))
		require.NoError(t, err)

		h, err := cs.Hasher()
		require.NoError(t, err)

		h.Write(data)

		assert.True(t, cs.Matches(h))
		assert.Equal(t, "b2:"+hex.EncodeToString(sum[:]), cs.String())
	})

	t.Run("rejects malformed sums", func(t *testing.T) {
		_, err := ParseChecksum(AlgoSHA256, "zz")
		assert.Error(t, err)

		_, err = ParseChecksum(AlgoSHA256, "abcd")
		require.Error(t, err)

		assert.Contains(t, err.Error(), "must be 32 bytes")
		assert.Contains(t, fmt.Sprintf("%+v", err), "ParseChecksum", "error carries a stack")

		_, err = ParseChecksum("md5", "abcd")
		assert.Error(t, err)
	})

	t.Run("reports the actual digest", func(t *testing.T) {
		cs := Checksum{Algo: AlgoSHA256, Value: "00"}

		h, err := cs.Hasher()
		require.NoError(t, err)

		h.Write(data)

		sum := sha256.Sum256(data)

		assert.Equal(t, hex.EncodeToString(sum[:]), cs.Actual(h).Value)
	})
}
