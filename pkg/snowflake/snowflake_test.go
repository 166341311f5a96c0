package snowflake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeRange(t *testing.T) {
	_, err := NewGenerator(-1)
	assert.Error(t, err)
	_, err = NewGenerator(1024)
	assert.Error(t, err)
	_, err = NewGenerator(1023)
	assert.NoError(t, err)
}

func TestNextIDUnique(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := g.NextID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
