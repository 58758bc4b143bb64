package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	vec types.Vector
	err error
}

func (p stubProvider) Model() string { return "stub" }

func (p stubProvider) Embed(_ context.Context, texts []string) ([]types.Vector, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([]types.Vector, len(texts))
	for i := range out {
		out[i] = p.vec
	}
	return out, nil
}

func newSnapshot(t *testing.T) *engine.Snapshot {
	t.Helper()
	records := []*types.MicroSimRecord{
		{ID: "r1", Title: "One"},
		{ID: "r2", Title: "Two"},
		{ID: "r3", Title: "Three"},
	}
	snap, err := engine.NewSnapshot(records, &types.EmbeddingTable{
		Dimension: 2,
		Order:     []string{"r1", "r2", "r3"},
		Vectors:   map[string]types.Vector{"r1": {1, 0}, "r2": {0, 1}, "r3": {1, 1}},
	}, nil)
	require.NoError(t, err)
	return snap
}

func newTestServer(t *testing.T, p stubProvider, opts ...Option) *gin.Engine {
	t.Helper()
	e := engine.New(newSnapshot(t), p, nil)
	return NewServer(e, nil, opts...).Router()
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error
}

func TestRecommend(t *testing.T) {
	r := newTestServer(t, stubProvider{vec: types.Vector{1, 0}})

	w := do(r, http.MethodPost, "/recommend", `{"spec": "Topic: pendulum", "top": 2}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var rec engine.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Topic: pendulum", rec.Query)
	require.Len(t, rec.Results, 2)
	assert.Equal(t, "r1", rec.Results[0].ID)
	assert.Equal(t, "r3", rec.Results[1].ID)
}

func TestRecommendBlankSpec(t *testing.T) {
	r := newTestServer(t, stubProvider{vec: types.Vector{1, 0}})

	w := do(r, http.MethodPost, "/recommend", `{"spec": "   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(engine.KindUnparseableSpecification), decodeError(t, w).Code)

	w = do(r, http.MethodPost, "/recommend", `{"spec": `)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeError(t, w).Code)

	w = do(r, http.MethodPost, "/recommend", `{"spec": "Topic: x", "top": -1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendProviderFailure(t *testing.T) {
	r := newTestServer(t, stubProvider{err: errors.New("connection refused")})

	w := do(r, http.MethodPost, "/recommend", `{"spec": "Topic: pendulum"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(engine.KindEmbeddingProvider), decodeError(t, w).Code)
}

func TestRecommendWrongDimension(t *testing.T) {
	r := newTestServer(t, stubProvider{vec: types.Vector{1, 0, 0}})

	w := do(r, http.MethodPost, "/recommend", `{"spec": "Topic: pendulum"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(engine.KindDimensionMismatch), decodeError(t, w).Code)
}

func TestSimilar(t *testing.T) {
	r := newTestServer(t, stubProvider{})

	w := do(r, http.MethodGet, "/similar?id=r1&top=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		ID      string          `json:"id"`
		Results []engine.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "r3", body.Results[0].ID)

	w = do(r, http.MethodGet, "/similar?id=missing", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(engine.KindNotFound), decodeError(t, w).Code)

	w = do(r, http.MethodGet, "/similar", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/similar?id=r1&top=x", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthStatsAndMetrics(t *testing.T) {
	r := newTestServer(t, stubProvider{})

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"records":3`)

	w = do(r, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st engine.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 3, st.Embedded)

	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "simmatch_corpus_records")
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestServer(t, stubProvider{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestReload(t *testing.T) {
	r := newTestServer(t, stubProvider{})
	w := do(r, http.MethodPost, "/reload", "")
	require.Equal(t, http.StatusNotImplemented, w.Code)

	reloaded := false
	r = newTestServer(t, stubProvider{}, WithReload(func(context.Context) (*engine.Snapshot, error) {
		reloaded = true
		return engine.NewSnapshot(nil, nil, nil)
	}))
	w = do(r, http.MethodPost, "/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reloaded)

	w = do(r, http.MethodGet, "/health", "")
	assert.Contains(t, w.Body.String(), `"records":0`)
}
