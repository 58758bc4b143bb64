package storage

import "microsim-matcher/internal/types"

// VectorStore is a row-addressed store of fixed-dimension vectors.
type VectorStore interface {
	// Append adds a vector and returns its row.
	Append(vector types.Vector) (uint64, error)

	// Get retrieves the vector at row.
	Get(row uint64) (types.Vector, error)

	// Count returns the number of stored rows.
	Count() uint64

	// Dim returns the vector dimension.
	Dim() int

	// Close flushes and closes the store.
	Close() error
}

var _ VectorStore = (*MmapVectorStore)(nil)
