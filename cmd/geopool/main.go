package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/nishad/geopool/internal/config"
	"github.com/spf13/cobra"
)

// Version info
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// Global flags
var (
	configPath string
	noColor    bool
	quiet      bool
	verbose    bool
)

// cfg is loaded before any subcommand runs
var cfg *config.Config

// logLevel is the level of the default logger
var logLevel = new(slog.LevelVar)

// Root command
var rootCmd = &cobra.Command{
	Use:   "geopool",
	Short: "GEO/SRA transcriptomics study mapper",
	Long: `geopool lists GEO-brokered transcriptomics studies from ENA or RNASeq-er,
splits them into bulk and single-cell by title, cross-references SRA studies
with GEO series and writes the filtered mapping as geo_<type>_rnaseq.tsv.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Example: `  # Bulk studies from ENA, GEO series resolved to SRA studies
  geopool list --type bulk --output ./out

  # Single-cell studies from RNASeq-er, skipping tracked studies
  geopool pool --type singlecell --output ./out

  # Check how titles would be classified
  geopool classify "Single-cell RNA-seq of mouse cortex"`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $GEOPOOL_CONFIG, ./geopool.yaml or the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newPoolCmd())
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(configCmd)
}

// setup configures logging and loads the configuration
func setup(cmd *cobra.Command, args []string) error {
	setupLogging()

	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	loaded.ApplyEnv()
	cfg = loaded

	slog.Debug("loaded config", "path", path)
	return nil
}

func setupLogging() {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}
	logLevel.Set(level)

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    !colorEnabled(os.Stderr),
	}))
	slog.SetDefault(logger)
}

// raiseLogLevel lifts the logger to at least floor until restore is called
func raiseLogLevel(floor slog.Level) (restore func()) {
	prev := logLevel.Level()
	if prev < floor {
		logLevel.Set(floor)
	}
	return func() { logLevel.Set(prev) }
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
