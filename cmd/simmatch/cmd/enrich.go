package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"microsim-matcher/internal/pedagogy"
	"microsim-matcher/internal/report"
	"microsim-matcher/internal/storage"
	"microsim-matcher/internal/types"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	enrichInput  string
	enrichOut    string
	enrichForce  bool
	enrichDryRun bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Classify records that lack a pedagogical profile",
	Long: `Derive a pedagogical profile (pattern, pacing, Bloom alignment and verbs,
feedback, interaction style) from each record's text and write it under the
record's "pedagogical" key. Records that already carry a profile are left
alone unless --force is given; a "pedagogical" value that is not an object
is replaced.

Examples:
  simmatch enrich --dry-run
  simmatch enrich --out microsims-enriched.json --force`,
	Args: cobra.NoArgs,
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichInput, "input", "", "Corpus file to read (defaults to config corpus_path)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "File to write (defaults to the input file)")
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "Reclassify records that already have a profile")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "Classify without writing")
}

type enrichSummary struct {
	Input    string         `json:"input" yaml:"input"`
	Output   string         `json:"output,omitempty" yaml:"output,omitempty"`
	Records  int            `json:"records" yaml:"records"`
	Enriched int            `json:"enriched" yaml:"enriched"`
	Skipped  int            `json:"skipped" yaml:"skipped"`
	Patterns map[string]int `json:"patterns" yaml:"patterns"`
}

func runEnrich(cmd *cobra.Command, args []string) error {
	input := enrichInput
	if input == "" {
		input = cfg.CorpusPath
	}
	out := enrichOut
	if out == "" {
		out = input
	}

	items, err := storage.ReadCorpusRaw(input)
	if err != nil {
		return err
	}

	patterns := make([]string, len(items))
	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)
	for i, raw := range items {
		i, raw := i, raw
		g.Go(func() error {
			var rec types.MicroSimRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				log.Warn("skipping undecodable record", "index", i, "error", err)
				return nil
			}
			if rec.Pedagogical != nil && !rec.Pedagogical.Malformed && !enrichForce {
				return nil
			}
			profile := pedagogy.Classify(pedagogy.RecordContent(&rec), &rec)
			sec, err := profile.Section()
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			patched, err := storage.SetField(raw, "pedagogical", sec)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			items[i] = patched
			patterns[i] = profile.Pattern.String()
			log.Debug("classified", "id", rec.Key(), "pattern", patterns[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sum := enrichSummary{Input: input, Records: len(items), Patterns: map[string]int{}}
	for _, p := range patterns {
		if p == "" {
			sum.Skipped++
			continue
		}
		sum.Enriched++
		sum.Patterns[p]++
	}
	if !enrichDryRun && sum.Enriched > 0 {
		if err := storage.WriteCorpusRaw(out, items); err != nil {
			return fmt.Errorf("write corpus: %w", err)
		}
		sum.Output = out
	}
	log.Info("enrichment finished", "enriched", sum.Enriched, "skipped", sum.Skipped, "output", sum.Output)

	if format == report.FormatJSON || format == report.FormatYAML {
		return report.Encode(cmd.OutOrStdout(), format, sum)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Enriched %d of %d records (%d skipped)\n", sum.Enriched, sum.Records, sum.Skipped)
	if sum.Output != "" {
		fmt.Fprintf(w, "Wrote %s\n", sum.Output)
	}
	names := make([]string, 0, len(sum.Patterns))
	for p := range sum.Patterns {
		names = append(names, p)
	}
	sort.Strings(names)
	for _, p := range names {
		fmt.Fprintf(w, "  %-18s %d\n", p, sum.Patterns[p])
	}
	return nil
}
