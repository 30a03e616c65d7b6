package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	t.Run("is a no-op without a writer", func(t *testing.T) {
		p := Bytes(context.Background(), 10, "x")

		n, err := p.Write([]byte("hello"))
		require.NoError(t, err)

		assert.Equal(t, 5, n)

		p.On("step")
		p.Close()
	})

	t.Run("renders to the attached writer", func(t *testing.T) {
		var buf bytes.Buffer

		ctx := Open(context.Background(), &buf)

		p := Bytes(ctx, 5, "Downloading")

		_, err := p.Write([]byte("hello"))
		require.NoError(t, err)

		p.Close()

		assert.Contains(t, buf.String(), "Downloading")
	})

	t.Run("counts steps", func(t *testing.T) {
		var buf bytes.Buffer

		ctx := Open(context.Background(), &buf)

		p := Count(ctx, 2, "Building")

		p.On("first")
		p.Tick()
		p.On("second")
		p.Tick()
		p.Close()

		assert.Contains(t, buf.String(), "Building: second")
		assert.Contains(t, buf.String(), "2/2")
	})

	t.Run("counting is a no-op without a writer", func(t *testing.T) {
		p := Count(context.Background(), 2, "Building")

		p.Tick()
		p.Close()
	})
}
