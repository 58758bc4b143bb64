package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"microsim-matcher/internal/types"

	"golang.org/x/sync/singleflight"
)

// CacheStore persists vectors by key.
type CacheStore interface {
	Get(ctx context.Context, key string) (types.Vector, bool, error)
	Set(ctx context.Context, key string, v types.Vector) error
}

// MemoryStore is a process-local CacheStore.
type MemoryStore struct {
	mu   sync.RWMutex
	vecs map[string]types.Vector
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vecs: make(map[string]types.Vector)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (types.Vector, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vecs[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, v types.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vecs[key] = v
	return nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}

// flightTimeout bounds a shared provider call, which no longer follows the
// context of the caller that started it.
const flightTimeout = 2 * time.Minute

// Cached wraps a Provider so each distinct text is embedded at most once
// per store. Concurrent requests for the same uncached batch share one
// provider call; each caller still stops waiting when its own context ends.
// Store failures degrade to a cache miss.
type Cached struct {
	inner Provider
	store CacheStore
	group singleflight.Group
}

func NewCached(inner Provider, store CacheStore) *Cached {
	return &Cached{inner: inner, store: store}
}

func (c *Cached) Model() string { return c.inner.Model() }

// CacheKey identifies text under a model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func (c *Cached) Embed(ctx context.Context, texts []string) ([]types.Vector, error) {
	out := make([]types.Vector, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	pending := map[string]int{} // key -> position in missTexts

	for i, t := range texts {
		keys[i] = CacheKey(c.inner.Model(), t)
		if v, ok, err := c.store.Get(ctx, keys[i]); err == nil && ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		if _, seen := pending[keys[i]]; !seen {
			pending[keys[i]] = len(missTexts)
			missTexts = append(missTexts, t)
		}
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	flightKey := make([]string, 0, len(missTexts))
	for _, t := range missTexts {
		flightKey = append(flightKey, CacheKey(c.inner.Model(), t))
	}
	ch := c.group.DoChan(strings.Join(flightKey, ","), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		vecs, err := c.inner.Embed(fctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(missTexts) {
			return nil, fmt.Errorf("embed: expected %d vectors, got %d", len(missTexts), len(vecs))
		}
		for j, v := range vecs {
			_ = c.store.Set(fctx, flightKey[j], v)
		}
		return vecs, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	vecs := res.Val.([]types.Vector)
	for _, i := range missIdx {
		out[i] = vecs[pending[keys[i]]]
	}
	return out, nil
}
