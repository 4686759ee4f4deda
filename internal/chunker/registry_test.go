package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry(100, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{StrategyRecursive, StrategyWindow}, r.Names())

	c, err := r.Lookup(StrategyWindow)
	require.NoError(t, err)
	w, ok := c.(*WindowChunker)
	require.True(t, ok)
	assert.Equal(t, 100, w.Size)

	_, err = r.Lookup("semantic")
	assert.ErrorContains(t, err, "unknown chunking strategy")

	_, err = DefaultRegistry(10, 10)
	assert.Error(t, err)
}
