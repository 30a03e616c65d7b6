package humanize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	assert.Equal(t, "512B", Bytes(512))
	assert.Equal(t, "1.50KB", Bytes(1536))
	assert.Equal(t, "2.00MB", Bytes(2*1024*1024))
	assert.Equal(t, "unknown size", Bytes(-1))
}
