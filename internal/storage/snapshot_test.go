package storage

import (
	"os"
	"path/filepath"
	"testing"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	corpus := writeFile(t, "microsims-data.json", corpusJSON)
	records, err := LoadCorpus(corpus, nil)
	require.NoError(t, err)

	table := &types.EmbeddingTable{
		Model:     "all-MiniLM-L6-v2",
		Dimension: 3,
		Order:     []string{"graph-sort", "https://a.github.io/course/sims/pendulum/", "orphan"},
		Vectors: map[string]types.Vector{
			"https://a.github.io/course/sims/pendulum/": {1, 0, 0},
			"graph-sort": {0, 0.5, 0.5},
			"orphan":     {0, 0, 1},
		},
	}

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, WriteSnapshot(dir, records, table, corpus))

	snap, err := OpenSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, table.Order, snap.Embeddings.Order)
	assert.Equal(t, table.Vectors, snap.Embeddings.Vectors)
	assert.Equal(t, 3, snap.Embeddings.Dimension)
	assert.Equal(t, "all-MiniLM-L6-v2", snap.Embeddings.Model)
	assert.Equal(t, 2, snap.Meta.Records)
	assert.Equal(t, 3, snap.Meta.Vectors)
	assert.Equal(t, corpus, snap.Meta.Source)

	require.Len(t, snap.Records, 2)
	assert.Equal(t, records[0].Key(), snap.Records[0].Key())
	assert.Equal(t, records[1].AllSubjects(), snap.Records[1].AllSubjects())
	require.NotNil(t, snap.Records[0].Pedagogical)
	assert.JSONEq(t, string(records[0].Pedagogical.Pattern), string(snap.Records[0].Pedagogical.Pattern))

	// The snapshot feeds the engine the same way the JSON files do.
	es, err := engine.NewSnapshot(snap.Records, snap.Embeddings, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, es.Len())
	assert.Equal(t, 1, es.Stats().OrphanEmbeddings)
}

func TestSnapshotReimportReplaces(t *testing.T) {
	dir := t.TempDir()
	first := &types.EmbeddingTable{Dimension: 2, Order: []string{"a", "b"},
		Vectors: map[string]types.Vector{"a": {1, 0}, "b": {0, 1}}}
	require.NoError(t, WriteSnapshot(dir, []*types.MicroSimRecord{{ID: "a"}, {ID: "b"}}, first, ""))

	second := &types.EmbeddingTable{Dimension: 4, Order: []string{"c"},
		Vectors: map[string]types.Vector{"c": {1, 1, 1, 1}}}
	require.NoError(t, WriteSnapshot(dir, []*types.MicroSimRecord{{ID: "c"}}, second, ""))

	snap, err := OpenSnapshot(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, snap.Embeddings.Order)
	assert.Equal(t, 4, snap.Embeddings.Dimension)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "c", snap.Records[0].Key())
}

func TestOpenSnapshotMissing(t *testing.T) {
	_, err := OpenSnapshot(t.TempDir())
	require.ErrorIs(t, err, engine.ErrMissingCorpusData)

	var ee *engine.Error
	require.ErrorAs(t, err, &ee)
	assert.True(t, os.IsNotExist(ee.Err))
}

func TestCatalogMeta(t *testing.T) {
	cat, err := OpenBoltCatalog(filepath.Join(t.TempDir(), CatalogFile), false)
	require.NoError(t, err)
	defer cat.Close()

	_, ok, err := cat.Meta()
	require.NoError(t, err)
	assert.False(t, ok)

	meta := CatalogMeta{Model: "m", Dimension: 2, Records: 1, Vectors: 1}
	require.NoError(t, cat.Replace([]*types.MicroSimRecord{{ID: "x", Title: "X"}}, map[string]uint64{"x": 0}, meta))
	got, ok, err := cat.Meta()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 2, got.Dimension)

	records, err := cat.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0].Title)
}

