package cmd

import (
	"context"
	"strings"

	"microsim-matcher/internal/api"
	"microsim-matcher/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Long: `Serve the recommendation API.

Endpoints:
  GET  /health
  GET  /stats
  POST /recommend   {"spec": "...", "top": 5}
  GET  /similar?id=...&top=10
  POST /reload      re-read the corpus and swap it in
  GET  /metrics     Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to config server_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	if strings.HasPrefix(strings.ToLower(cfg.LogMode), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}

	snap, err := buildSnapshot(cfg, log)
	if err != nil {
		return err
	}
	st := snap.Stats()
	log.Info("snapshot ready", "records", st.Embedded, "orphan_records", st.OrphanRecords,
		"orphan_embeddings", st.OrphanEmbeddings, "dimension", st.Dimension)

	eng := buildEngine(snap, newProvider(ctx, cfg, log), cfg, log)
	srv := api.NewServer(eng, log,
		api.WithLimits(cfg.TopN, cfg.Similar),
		api.WithReload(func(context.Context) (*engine.Snapshot, error) {
			return buildSnapshot(cfg, log)
		}),
	)
	return srv.Start(ctx, addr)
}
