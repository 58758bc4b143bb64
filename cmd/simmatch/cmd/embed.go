package cmd

import (
	"errors"
	"fmt"
	"strings"

	"microsim-matcher/internal/spec"
	"microsim-matcher/internal/storage"
	"microsim-matcher/internal/types"

	"github.com/spf13/cobra"
)

var (
	embedInput string
	embedOut   string
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate the embeddings table for the corpus",
	Long: `Compose each record's text the same way specifications are composed,
embed it with the configured provider and write the embeddings file.

Examples:
  simmatch embed
  simmatch embed --input microsims-data.json --out microsims-embeddings.json`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().StringVar(&embedInput, "input", "", "Corpus file (defaults to config corpus_path)")
	embedCmd.Flags().StringVar(&embedOut, "out", "", "Embeddings file to write (defaults to config embeddings_path)")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	input := embedInput
	if input == "" {
		input = cfg.CorpusPath
	}
	out := embedOut
	if out == "" {
		out = cfg.EmbeddingsPath
	}

	records, err := storage.LoadCorpus(input, log)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(records))
	var ids, texts []string
	for _, rec := range records {
		id := rec.Key()
		if id == "" || seen[id] {
			log.Warn("skipping record with empty or duplicate id", "id", id, "title", rec.Title)
			continue
		}
		seen[id] = true
		text := spec.CorpusText(rec)
		if strings.TrimSpace(text) == "" {
			log.Warn("skipping record without text", "id", id)
			continue
		}
		ids = append(ids, id)
		texts = append(texts, text)
	}
	if len(ids) == 0 {
		return errors.New("no records with text to embed")
	}

	provider := newProvider(ctx, cfg, log)
	log.Info("embedding corpus", "records", len(ids), "model", provider.Model())
	vecs, err := provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}

	table := &types.EmbeddingTable{
		Model:     provider.Model(),
		Dimension: len(vecs[0]),
		Order:     ids,
		Vectors:   make(map[string]types.Vector, len(ids)),
	}
	for i, id := range ids {
		table.Vectors[id] = vecs[i]
	}
	if err := storage.WriteEmbeddings(out, table, input); err != nil {
		return fmt.Errorf("write embeddings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d embeddings (dim %d, model %s) to %s\n", len(ids), table.Dimension, table.Model, out)
	return nil
}
