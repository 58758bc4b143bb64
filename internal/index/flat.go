package index

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"microsim-matcher/internal/types"
)

// ErrDimensionMismatch is returned when a vector's length differs from the
// index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Flat is an exact cosine-similarity index. Vectors are L2-normalized once
// at build time and stored row-major in a single slice, so a query is one
// dot product per row. A Flat is immutable and safe for concurrent reads.
type Flat struct {
	dim    int
	ids    []string
	rows   map[string]int
	matrix []float32
}

// Build normalizes and stores the vectors for ids, in that order. Every id
// must have a vector of the same length.
func Build(ids []string, vectors map[string]types.Vector) (*Flat, error) {
	idx := &Flat{rows: make(map[string]int, len(ids))}
	for _, id := range ids {
		v, ok := vectors[id]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", id)
		}
		if _, dup := idx.rows[id]; dup {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		if idx.dim == 0 {
			if len(v) == 0 {
				return nil, fmt.Errorf("empty vector for %q", id)
			}
			idx.dim = len(v)
			idx.matrix = make([]float32, 0, len(ids)*idx.dim)
		}
		if len(v) != idx.dim {
			return nil, fmt.Errorf("%w: %q has %d, expected %d", ErrDimensionMismatch, id, len(v), idx.dim)
		}
		idx.rows[id] = len(idx.ids)
		idx.ids = append(idx.ids, id)
		idx.matrix = append(idx.matrix, Normalize(v)...)
	}
	return idx, nil
}

// Dim is zero for an empty index.
func (f *Flat) Dim() int { return f.dim }

func (f *Flat) Len() int { return len(f.ids) }

// IDs returns the stored ids in row order.
func (f *Flat) IDs() []string {
	out := make([]string, len(f.ids))
	copy(out, f.ids)
	return out
}

// Vector returns a copy of the normalized vector stored for id.
func (f *Flat) Vector(id string) (types.Vector, bool) {
	r, ok := f.rows[id]
	if !ok {
		return nil, false
	}
	out := make(types.Vector, f.dim)
	copy(out, f.row(r))
	return out, true
}

func (f *Flat) row(r int) []float32 {
	return f.matrix[r*f.dim : (r+1)*f.dim]
}

// Hit is one search result.
type Hit struct {
	ID         string
	Similarity float64
}

// Search returns the k most similar ids, excluding any listed in skip.
// Ties keep row order.
func (f *Flat) Search(query types.Vector, k int, skip ...string) ([]Hit, error) {
	sims, err := f.Similarities(query)
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(skip))
	for _, s := range skip {
		excluded[s] = true
	}
	hits := make([]Hit, 0, len(f.ids))
	for i, id := range f.ids {
		if excluded[id] {
			continue
		}
		hits = append(hits, Hit{ID: id, Similarity: sims[i]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Similarities returns one cosine similarity per stored vector, in row order.
func (f *Flat) Similarities(query types.Vector) ([]float64, error) {
	if len(f.ids) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	q := Normalize(query)
	out := make([]float64, len(f.ids))
	for r := range f.ids {
		out[r] = dot(q, f.row(r))
	}
	return out, nil
}

// Normalize returns v scaled to unit length. A zero vector is returned
// unchanged.
func Normalize(v types.Vector) types.Vector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make(types.Vector, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
