package embed

import (
	"context"
	"fmt"
	"strings"

	"microsim-matcher/internal/types"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configures an OpenAI-compatible embedding client.
type Options struct {
	Model      string
	BaseURL    string
	APIKey     string
	Dimension  int // expected vector length; 0 skips the check
	BatchSize  int
	MaxRetries int
}

// OpenAI calls any server exposing the OpenAI /embeddings endpoint.
type OpenAI struct {
	client *openai.Client
	opts   Options
}

func NewOpenAI(optFns ...func(o *Options)) *OpenAI {
	opts := Options{
		Model:      "all-MiniLM-L6-v2",
		BatchSize:  64,
		MaxRetries: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var reqOpts []option.RequestOption
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	// Local servers usually ignore the key, but the client insists on one.
	key := opts.APIKey
	if key == "" {
		key = "unused"
	}
	reqOpts = append(reqOpts, option.WithAPIKey(key), option.WithMaxRetries(opts.MaxRetries))

	client := openai.NewClient(reqOpts...)
	return &OpenAI{client: &client, opts: opts}
}

func (o *OpenAI) Model() string { return o.opts.Model }

func (o *OpenAI) Embed(ctx context.Context, texts []string) ([]types.Vector, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("input %d: %w", i, ErrEmptyInput)
		}
	}
	size := o.opts.BatchSize
	if size <= 0 {
		size = len(texts)
	}

	out := make([]types.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := o.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (o *OpenAI) embedBatch(ctx context.Context, batch []string) ([]types.Vector, error) {
	resp, err := o.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		Model: openai.EmbeddingModel(o.opts.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("embeddings response: expected %d vectors, got %d", len(batch), len(resp.Data))
	}

	vecs := make([]types.Vector, len(batch))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(batch) || vecs[i] != nil {
			return nil, fmt.Errorf("embeddings response: bad index %d", d.Index)
		}
		if o.opts.Dimension > 0 && len(d.Embedding) != o.opts.Dimension {
			return nil, fmt.Errorf("embeddings response: vector %d has dimension %d, expected %d", i, len(d.Embedding), o.opts.Dimension)
		}
		v := make(types.Vector, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		vecs[i] = v
	}
	return vecs, nil
}
