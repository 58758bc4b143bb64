package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/types"
)

const (
	CatalogFile = "catalog.db"
	VectorFile  = "vectors.bin"
)

// Snapshot is the on-disk form of a corpus plus its embedding table.
type Snapshot struct {
	Records    []*types.MicroSimRecord
	Embeddings *types.EmbeddingTable
	Meta       CatalogMeta
}

// WriteSnapshot stores records and table under dir, replacing any previous
// snapshot there.
func WriteSnapshot(dir string, records []*types.MicroSimRecord, table *types.EmbeddingTable, source string) error {
	if table == nil || len(table.Order) == 0 {
		return errors.New("write snapshot: embedding table is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dim := table.Dimension
	if dim == 0 {
		dim = len(table.Vectors[table.Order[0]])
	}

	vecPath := filepath.Join(dir, VectorFile)
	if err := os.Remove(vecPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	vs, err := OpenMmapVectorStore(vecPath, dim)
	if err != nil {
		return err
	}
	rows := make(map[string]uint64, len(table.Order))
	for _, id := range table.Order {
		row, err := vs.Append(table.Vectors[id])
		if err != nil {
			vs.Close()
			return fmt.Errorf("write vector %q: %w", id, err)
		}
		rows[id] = row
	}
	if err := vs.Close(); err != nil {
		return err
	}

	cat, err := OpenBoltCatalog(filepath.Join(dir, CatalogFile), false)
	if err != nil {
		return err
	}
	defer cat.Close()
	return cat.Replace(records, rows, CatalogMeta{
		Model:      table.Model,
		Dimension:  dim,
		Source:     source,
		ImportedAt: time.Now().UTC(),
	})
}

// OpenSnapshot reads a snapshot written by WriteSnapshot. The result is
// equivalent to loading the corpus and embeddings JSON files.
func OpenSnapshot(dir string) (*Snapshot, error) {
	catPath := filepath.Join(dir, CatalogFile)
	vecPath := filepath.Join(dir, VectorFile)
	for _, p := range []string{catPath, vecPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, engine.NewError(engine.KindMissingCorpusData, "open snapshot", p, err)
		}
	}

	cat, err := OpenBoltCatalog(catPath, true)
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "open catalog", catPath, err)
	}
	defer cat.Close()

	meta, ok, err := cat.Meta()
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read catalog", catPath, err)
	}
	if !ok {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read catalog", catPath, errors.New("catalog was never imported"))
	}
	records, err := cat.Records()
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read catalog", catPath, err)
	}
	rows, err := cat.Rows()
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read catalog", catPath, err)
	}

	vs, err := OpenMmapVectorStore(vecPath, meta.Dimension)
	if err != nil {
		kind := engine.KindMissingCorpusData
		if errors.Is(err, ErrVectorDimension) {
			kind = engine.KindDimensionMismatch
		}
		return nil, engine.NewError(kind, "open vectors", vecPath, err)
	}
	defer vs.Close()

	table, err := readTable(vs, rows)
	if err != nil {
		return nil, engine.NewError(engine.KindMissingCorpusData, "read vectors", vecPath, err)
	}
	table.Model = meta.Model
	return &Snapshot{Records: records, Embeddings: table, Meta: meta}, nil
}

// readTable rebuilds an embedding table from rows, ordering ids by row.
func readTable(vs VectorStore, rows map[string]uint64) (*types.EmbeddingTable, error) {
	ids := make([]string, 0, len(rows))
	for id, row := range rows {
		if row >= vs.Count() {
			return nil, fmt.Errorf("%s: row %d beyond %d stored vectors", id, row, vs.Count())
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return rows[ids[i]] < rows[ids[j]] })

	table := &types.EmbeddingTable{
		Dimension: vs.Dim(),
		Order:     ids,
		Vectors:   make(map[string]types.Vector, len(ids)),
	}
	for _, id := range ids {
		vec, err := vs.Get(rows[id])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		table.Vectors[id] = vec
	}
	return table, nil
}
