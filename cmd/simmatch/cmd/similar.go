package cmd

import (
	"fmt"

	"microsim-matcher/internal/report"

	"github.com/spf13/cobra"
)

var similarTop int

var similarCmd = &cobra.Command{
	Use:   "similar <id>",
	Short: "List catalog items closest to an existing one",
	Long: `List the catalog items whose embeddings are closest to the given item.
The item itself is never part of the result.

Examples:
  simmatch similar https://example.github.io/course/sims/pendulum/ --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarTop, "top", "n", 0, "Number of results (defaults to config similar)")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	top := similarTop
	if top <= 0 {
		top = cfg.Similar
	}
	snap, err := buildSnapshot(cfg, log)
	if err != nil {
		return err
	}
	// Neighbour lookups use stored vectors only.
	eng := buildEngine(snap, nil, cfg, log)

	results, err := eng.Similar(ctx, args[0], top)
	if err != nil {
		return err
	}
	heading := "Similar MicroSims"
	if rec, _, ok := snap.Record(args[0]); ok && rec.Title != "" {
		heading = fmt.Sprintf("MicroSims Similar to %s", rec.Title)
	}
	return report.Results(cmd.OutOrStdout(), format, heading, results)
}
