package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"microsim-matcher/internal/report"

	"github.com/spf13/cobra"
)

var (
	findFile string
	findSpec string
	findTop  int
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Recommend templates for a specification",
	Long: `Recommend MicroSim templates for a specification.

The specification is read from --file, --spec or stdin. Labelled lines such
as "Type:", "Learning Objective:" or "Bloom Level:" are recognized; text
without labels is embedded as is.

Examples:
  simmatch find --file spec.txt
  simmatch find --spec "Type: microsim
Bloom Level: Apply
Topic: pendulum" --top 3
  cat spec.txt | simmatch find -o json`,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().StringVarP(&findFile, "file", "f", "", "Specification file")
	findCmd.Flags().StringVarP(&findSpec, "spec", "s", "", "Specification text")
	findCmd.Flags().IntVarP(&findTop, "top", "n", 0, "Number of results (defaults to config top_n)")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	text, err := readSpecification(cmd.InOrStdin())
	if err != nil {
		return err
	}
	top := findTop
	if top <= 0 {
		top = cfg.TopN
	}

	snap, err := buildSnapshot(cfg, log)
	if err != nil {
		return err
	}
	eng := buildEngine(snap, newProvider(ctx, cfg, log), cfg, log)

	rec, err := eng.Recommend(ctx, text, top)
	if err != nil {
		return err
	}
	if format == report.FormatJSON || format == report.FormatYAML {
		return report.Encode(cmd.OutOrStdout(), format, rec)
	}
	return report.Results(cmd.OutOrStdout(), format, "Similar MicroSim Templates", rec.Results)
}

func readSpecification(stdin io.Reader) (string, error) {
	switch {
	case findFile != "":
		data, err := os.ReadFile(findFile)
		if err != nil {
			return "", fmt.Errorf("read specification: %w", err)
		}
		return string(data), nil
	case findSpec != "":
		return findSpec, nil
	}
	if f, ok := stdin.(*os.File); ok {
		if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
			return "", errors.New("no specification provided; use --file, --spec, or pipe to stdin")
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
