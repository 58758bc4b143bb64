package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"microsim-matcher/internal/embed"
	"microsim-matcher/internal/index"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/metrics"
	"microsim-matcher/internal/pedagogy"
	"microsim-matcher/internal/spec"
	"microsim-matcher/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// Fusion weights for the combined score.
const (
	SemanticWeight    = 0.6
	PedagogicalWeight = 0.4
)

var tracer = otel.Tracer("microsim-matcher/engine")

type Options struct {
	Workers          int
	EmbedTimeout     time.Duration
	DescriptionLimit int // runes kept in Result.Description
}

// Result is one ranked template with every score that produced its rank.
type Result struct {
	ID                string              `json:"id" yaml:"id"`
	Title             string              `json:"title" yaml:"title"`
	CombinedScore     float64             `json:"combinedScore" yaml:"combinedScore"`
	SemanticScore     float64             `json:"semanticScore" yaml:"semanticScore"`
	PedagogicalScore  float64             `json:"pedagogicalScore" yaml:"pedagogicalScore"`
	Pedagogy          *pedagogy.Breakdown `json:"pedagogy,omitempty" yaml:"pedagogy,omitempty"`
	Framework         string              `json:"framework,omitempty" yaml:"framework,omitempty"`
	Subjects          []string            `json:"subjects,omitempty" yaml:"subjects,omitempty"`
	VisualizationType []string            `json:"visualizationType,omitempty" yaml:"visualizationType,omitempty"`
	Pattern           string              `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Pacing            string              `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	BloomVerbs        []string            `json:"bloomVerbs,omitempty" yaml:"bloomVerbs,omitempty"`
	Description       string              `json:"description,omitempty" yaml:"description,omitempty"`
	GitHubURL         string              `json:"githubUrl,omitempty" yaml:"githubUrl,omitempty"`
}

// Recommendation is the answer to one specification.
type Recommendation struct {
	Query   string   `json:"query" yaml:"query"`
	Results []Result `json:"results" yaml:"results"`
}

// Engine ranks catalog records against specifications. The active snapshot
// can be replaced at any time; in-flight queries finish on the snapshot
// they started with.
type Engine struct {
	snap     atomic.Pointer[Snapshot]
	provider embed.Provider
	opts     Options
	log      *logger.Logger
}

func New(snap *Snapshot, provider embed.Provider, log *logger.Logger, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Workers:          8,
		EmbedTimeout:     10 * time.Second,
		DescriptionLimit: 200,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{provider: provider, opts: opts, log: log.With("component", "engine")}
	e.Swap(snap)
	return e
}

// Snapshot returns the active snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap.Load()
}

// Swap installs a new snapshot. A nil snapshot installs an empty one.
func (e *Engine) Swap(s *Snapshot) {
	if s == nil {
		s, _ = NewSnapshot(nil, nil, nil)
	}
	e.snap.Store(s)
	st := s.Stats()
	metrics.CorpusRecords.Set(float64(st.Embedded))
	metrics.Orphans.WithLabelValues("record").Set(float64(st.OrphanRecords))
	metrics.Orphans.WithLabelValues("embedding").Set(float64(st.OrphanEmbeddings))
}

// Rank scores every embedded record against the parsed specification and
// its query vector, and returns the topN best by combined score. topN <= 0
// returns every record. Equal scores keep corpus order.
func (e *Engine) Rank(ctx context.Context, fields *spec.Fields, query types.Vector, topN int) ([]Result, error) {
	snap := e.snap.Load()
	n := snap.Len()
	if n == 0 {
		return []Result{}, nil
	}
	sims, err := snap.index.Similarities(query)
	if err != nil {
		if errors.Is(err, index.ErrDimensionMismatch) {
			return nil, NewError(KindDimensionMismatch, "rank", "", err)
		}
		return nil, err
	}
	q := pedagogy.QueryFromFields(fields)

	results := make([]Result, n)
	workers := e.opts.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				ent := snap.entries[i]
				b := pedagogy.Score(q, ent.profile)
				results[i] = e.newResult(ent, sims[i], &b)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}
	return results, nil
}

// Recommend runs the full pipeline: parse, compose, embed, rank. When the
// text has no recognized labels the raw text is embedded instead.
func (e *Engine) Recommend(ctx context.Context, text string, topN int) (rec *Recommendation, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "engine.Recommend")
	defer span.End()
	span.SetAttributes(
		attribute.Int("simmatch.corpus.size", e.Snapshot().Len()),
		attribute.Int("simmatch.top_n", topN),
	)
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			outcome = outcomeOf(err)
		}
		metrics.QueriesTotal.WithLabelValues(outcome).Inc()
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(text) == "" {
		return nil, NewError(KindUnparseableSpecification, "recommend", "", nil)
	}
	fields := spec.Parse(text)
	query := spec.QueryText(text, fields)
	if fields.Len() == 0 {
		e.log.Debug("no labelled fields, embedding raw text", "chars", len(query))
	}

	vec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := e.Rank(ctx, fields, vec, topN)
	if err != nil {
		return nil, err
	}
	e.log.Debug("recommendation ranked", "fields", fields.Len(), "results", len(results), "elapsed", time.Since(start))
	return &Recommendation{Query: query, Results: results}, nil
}

func (e *Engine) embedQuery(ctx context.Context, text string) (types.Vector, error) {
	if e.provider == nil {
		return nil, NewError(KindEmbeddingProvider, "embed query", "", errors.New("no provider configured"))
	}
	ectx, cancel := context.WithTimeout(ctx, e.opts.EmbedTimeout)
	defer cancel()

	start := time.Now()
	vec, err := embed.One(ectx, e.provider, text)
	metrics.EmbedDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, NewError(KindEmbeddingProvider, "embed query", e.provider.Model(), err)
	}
	if len(vec) == 0 {
		return nil, NewError(KindEmbeddingProvider, "embed query", e.provider.Model(), errors.New("empty vector"))
	}
	return vec, nil
}

// Similar returns the records closest to id by embedding alone, excluding
// id itself. Pedagogical scores are not computed, so CombinedScore equals
// SemanticScore.
func (e *Engine) Similar(ctx context.Context, id string, topN int) ([]Result, error) {
	snap := e.snap.Load()
	v, ok := snap.index.Vector(id)
	if !ok {
		return nil, NewError(KindNotFound, "similar", id, nil)
	}
	hits, err := snap.index.Search(v, topN, id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		ent := snap.entries[snap.byID[h.ID]]
		r := e.newResult(ent, h.Similarity, nil)
		out = append(out, r)
	}
	return out, nil
}

func (e *Engine) newResult(ent entry, semantic float64, b *pedagogy.Breakdown) Result {
	rec := ent.rec
	r := Result{
		ID:                rec.Key(),
		Title:             rec.Title,
		SemanticScore:     semantic,
		CombinedScore:     semantic,
		Framework:         string(rec.Framework),
		Subjects:          rec.AllSubjects(),
		VisualizationType: rec.VisualizationType.Values,
		Description:       truncateRunes(rec.Description, e.opts.DescriptionLimit),
		GitHubURL:         rec.GitHubURL(),
	}
	if b != nil {
		r.Pedagogy = b
		r.PedagogicalScore = b.Total
		r.CombinedScore = SemanticWeight*semantic + PedagogicalWeight*b.Total
	}
	if p := ent.profile; p != nil {
		if p.Pattern.Valid() {
			r.Pattern = p.Pattern.String()
		}
		if p.Pacing.Valid() {
			r.Pacing = p.Pacing.String()
		}
		r.BloomVerbs = p.VerbNames()
	}
	return r
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case KindOf(err) == KindUnparseableSpecification:
		return metrics.OutcomeUnparseable
	case KindOf(err) == KindEmbeddingProvider:
		return metrics.OutcomeEmbedFailure
	default:
		return metrics.OutcomeInternalError
	}
}
