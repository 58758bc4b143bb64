package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"microsim-matcher/internal/config"
	"microsim-matcher/internal/embed"
	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/storage"
	"microsim-matcher/internal/types"

	"github.com/redis/go-redis/v9"
)

// newProvider builds the embedding client and wraps it in the configured
// cache. A Redis cache that cannot be reached falls back to memory.
func newProvider(ctx context.Context, c config.Config, l *logger.Logger) embed.Provider {
	var p embed.Provider = embed.NewOpenAI(func(o *embed.Options) {
		o.Model = c.Embedding.Model
		o.BaseURL = c.Embedding.BaseURL
		o.APIKey = c.Embedding.APIKey
		o.Dimension = c.Embedding.Dimension
		o.BatchSize = c.Embedding.BatchSize
	})

	switch c.Cache.Backend {
	case "none":
		return p
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.Cache.RedisAddr, DB: c.Cache.RedisDB})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			l.Warn("redis cache unavailable, using memory cache", "addr", c.Cache.RedisAddr, "error", err)
			_ = rdb.Close()
			return embed.NewCached(p, embed.NewMemoryStore())
		}
		return embed.NewCached(p, embed.NewRedisStore(rdb, c.Cache.TTL))
	default:
		return embed.NewCached(p, embed.NewMemoryStore())
	}
}

// loadSources reads records and embeddings from the snapshot directory
// when one has been imported, otherwise from the JSON files.
func loadSources(c config.Config, l *logger.Logger) ([]*types.MicroSimRecord, *types.EmbeddingTable, error) {
	if c.DataDir != "" {
		if _, err := os.Stat(filepath.Join(c.DataDir, storage.CatalogFile)); err == nil {
			snap, err := storage.OpenSnapshot(c.DataDir)
			if err != nil {
				return nil, nil, err
			}
			l.Debug("loaded snapshot", "dir", c.DataDir, "records", len(snap.Records), "vectors", snap.Embeddings.Len())
			return snap.Records, snap.Embeddings, nil
		}
		l.Debug("no snapshot in data dir, reading JSON files", "dir", c.DataDir)
	}

	records, err := storage.LoadCorpus(c.CorpusPath, l)
	if err != nil {
		return nil, nil, err
	}
	table, err := storage.LoadEmbeddings(c.EmbeddingsPath)
	if err != nil {
		return nil, nil, err
	}
	return records, table, nil
}

func buildSnapshot(c config.Config, l *logger.Logger) (*engine.Snapshot, error) {
	records, table, err := loadSources(c, l)
	if err != nil {
		return nil, err
	}
	return engine.NewSnapshot(records, table, l)
}

func buildEngine(snap *engine.Snapshot, provider embed.Provider, c config.Config, l *logger.Logger) *engine.Engine {
	return engine.New(snap, provider, l, func(o *engine.Options) {
		o.Workers = c.Workers
		o.EmbedTimeout = c.Embedding.Timeout
	})
}
