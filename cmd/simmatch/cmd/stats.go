package cmd

import (
	"microsim-matcher/internal/report"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the corpus and its embeddings",
	Long: `Summarize the loaded corpus: record and embedding counts, records and
embeddings that do not pair up, malformed fields and the distribution of
instructional patterns.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := buildSnapshot(cfg, log)
		if err != nil {
			return err
		}
		return report.Stats(cmd.OutOrStdout(), format, snap.Stats())
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
