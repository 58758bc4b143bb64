package index

import (
	"errors"
	"testing"

	"microsim-matcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildIndex(t *testing.T) *Flat {
	t.Helper()
	vecs := map[string]types.Vector{
		"a": {1, 0, 0, 0},
		"b": {0, 1, 0, 0},
		"c": {0.7, 0.7, 0, 0},
		"z": {0, 0, 0, 0},
	}
	idx, err := Build([]string{"a", "b", "c", "z"}, vecs)
	require.NoError(t, err)
	return idx
}

func TestSelfSimilarityIsOne(t *testing.T) {
	idx := buildIndex(t)
	for row, id := range []string{"a", "b", "c"} {
		v, ok := idx.Vector(id)
		require.True(t, ok)
		sims, err := idx.Similarities(v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, sims[row], 1e-6, id)
	}
}

func TestUnnormalizedQuery(t *testing.T) {
	idx := buildIndex(t)
	sims, err := idx.Similarities(types.Vector{10, 0, 0, 0})
	require.NoError(t, err)
	require.Len(t, sims, 4)
	assert.InDelta(t, 1.0, sims[0], 1e-6)
	assert.InDelta(t, 0.0, sims[1], 1e-6)
	assert.InDelta(t, 0.7071, sims[2], 1e-3)
	assert.Equal(t, 0.0, sims[3])
}

func TestZeroQuery(t *testing.T) {
	idx := buildIndex(t)
	sims, err := idx.Similarities(types.Vector{0, 0, 0, 0})
	require.NoError(t, err)
	for row, s := range sims {
		assert.Equal(t, 0.0, s, row)
	}
}

func TestDimensionMismatch(t *testing.T) {
	idx := buildIndex(t)
	_, err := idx.Similarities(types.Vector{1, 0})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Build([]string{"a", "b"}, map[string]types.Vector{"a": {1, 0}, "b": {1, 0, 0}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestSearchExcludesSkipped(t *testing.T) {
	idx := buildIndex(t)
	hits, err := idx.Search(types.Vector{1, 0, 0, 0}, 2, "a")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
}

func TestEmptyIndex(t *testing.T) {
	idx, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	sims, err := idx.Similarities(types.Vector{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, sims)
}
