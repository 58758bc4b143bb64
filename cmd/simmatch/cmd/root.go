package cmd

import (
	"fmt"
	"os"

	"microsim-matcher/internal/config"
	"microsim-matcher/internal/logger"
	"microsim-matcher/internal/report"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file
	configPath string
	// outputFormat is the output format (text, table, json, yaml)
	outputFormat string
	// logMode overrides the configured log mode (dev, prod)
	logMode string
	// dataDir, corpusPath and embeddingsPath override the configured sources
	dataDir        string
	corpusPath     string
	embeddingsPath string
)

// Populated by the root command before any subcommand runs.
var (
	cfg    config.Config
	log    *logger.Logger
	format report.Format
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "simmatch",
	Short: "Find MicroSim templates that match a specification",
	Long: `simmatch ranks a catalog of MicroSims against a free-form specification,
blending embedding similarity with pedagogical alignment.

Examples:
  # Recommend templates for a specification file
  simmatch find --file spec.txt

  # Pipe a specification and get JSON
  cat spec.txt | simmatch find -o json

  # Neighbours of a catalog item
  simmatch similar https://example.github.io/course/sims/pendulum/

  # Import the JSON corpus into a snapshot and serve it
  simmatch import --data data
  simmatch serve --data data`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("data") {
			cfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("corpus") {
			cfg.CorpusPath = corpusPath
		}
		if cmd.Flags().Changed("embeddings") {
			cfg.EmbeddingsPath = embeddingsPath
		}
		if logMode != "" {
			cfg.LogMode = logMode
		}
		if format, err = report.ParseFormat(outputFormat); err != nil {
			return err
		}
		log, err = logger.New(cfg.LogMode, cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: dev or prod (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Snapshot directory (catalog.db, vectors.bin)")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "Corpus JSON file")
	rootCmd.PersistentFlags().StringVar(&embeddingsPath, "embeddings", "", "Embeddings JSON file")
}
