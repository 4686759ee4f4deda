package embedder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanPoolIgnoresPadding(t *testing.T) {
	// batch of 2, seqLen 3, hidden 2; second row has one padded token.
	data := []float32{
		1, 0, 3, 0, 5, 0,
		0, 2, 0, 4, 100, 100,
	}
	mask := []int64{1, 1, 1, 1, 1, 0}

	vecs := meanPool(data, mask, 2, 3, 2)
	require.Len(t, vecs, 2)

	assert.InDelta(t, 1.0, float64(vecs[0][0]), 1e-6)
	assert.InDelta(t, 0.0, float64(vecs[0][1]), 1e-6)
	assert.InDelta(t, 0.0, float64(vecs[1][0]), 1e-6)
	assert.InDelta(t, 1.0, float64(vecs[1][1]), 1e-6)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
