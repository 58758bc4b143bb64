// Package embed maps text to dense vectors. The model itself is external;
// this package only calls it and caches its answers.
package embed

import (
	"context"
	"errors"
	"fmt"

	"microsim-matcher/internal/types"
)

// Provider embeds a batch of texts, returning one vector per input in the
// same order. A Provider must be deterministic for a fixed model.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([]types.Vector, error)
	Model() string
}

// ErrEmptyInput is returned for blank texts; no provider accepts them.
var ErrEmptyInput = errors.New("embed: empty input text")

// One embeds a single text.
func One(ctx context.Context, p Provider, text string) (types.Vector, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}
