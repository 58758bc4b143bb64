package cmd

import (
	"microsim-matcher/internal/engine"
	"microsim-matcher/internal/report"
	"microsim-matcher/internal/storage"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Store the corpus and embeddings as a snapshot",
	Long: `Read the corpus and embeddings JSON files and store them under the data
directory as a bbolt catalog (catalog.db) plus a memory-mapped vector file
(vectors.bin). Later commands read the snapshot instead of the JSON files.

Examples:
  simmatch import --data data
  simmatch import --corpus microsims-data.json --embeddings microsims-embeddings.json --data data`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	dir := cfg.DataDir
	if dir == "" {
		dir = "data"
	}

	records, err := storage.LoadCorpus(cfg.CorpusPath, log)
	if err != nil {
		return err
	}
	table, err := storage.LoadEmbeddings(cfg.EmbeddingsPath)
	if err != nil {
		return err
	}
	// Build once so join problems are reported before anything is written.
	snap, err := engine.NewSnapshot(records, table, log)
	if err != nil {
		return err
	}
	if err := storage.WriteSnapshot(dir, records, table, cfg.CorpusPath); err != nil {
		return err
	}
	log.Info("snapshot imported", "dir", dir, "records", len(records), "vectors", table.Len())
	return report.Stats(cmd.OutOrStdout(), format, snap.Stats())
}
