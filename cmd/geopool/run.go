package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nishad/geopool/internal/classify"
	"github.com/nishad/geopool/internal/exclude"
	"github.com/nishad/geopool/internal/httpclient"
	"github.com/nishad/geopool/internal/metrics"
	"github.com/nishad/geopool/internal/paths"
	"github.com/nishad/geopool/internal/pipeline"
	"github.com/nishad/geopool/internal/resolve"
	"github.com/nishad/geopool/internal/ui"
	"github.com/spf13/cobra"
)

// resolveNone disables the resolution stage
const resolveNone = "none"

// runFlags are shared by list and pool
type runFlags struct {
	studyType   string
	output      string
	limit       string
	resolve     string
	exclude     bool
	noExclude   bool
	table       string
	sqlite      string
	metricsFile string
	concurrency int
}

// runParams are runFlags after validation
type runParams struct {
	label       classify.Label
	outputDir   string
	limit       int
	direction   resolve.Direction // empty when resolution is off
	concurrency int
}

func (f *runFlags) register(cmd *cobra.Command, defaultResolve string) {
	flags := cmd.Flags()
	flags.StringVarP(&f.studyType, "type", "t", "", "Study type (bulk|singlecell)")
	flags.StringVarP(&f.output, "output", "o", "", "Existing directory for geo_<type>_rnaseq.tsv")
	flags.StringVarP(&f.limit, "limit", "l", "", "Maximum number of studies to list (default from config)")
	flags.StringVar(&f.resolve, "resolve", defaultResolve, "Resolver (geo-to-sra|sra-to-geo|none)")
	flags.StringVar(&f.table, "table", "", "Also write the full study table to this file")
	flags.StringVar(&f.sqlite, "sqlite", "", "Also export the run to this SQLite file")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write run counters in Prometheus text format to this file")
	flags.IntVar(&f.concurrency, "concurrency", 0, "Parallel resolver lookups (default from config)")

	// --sqlite without a value exports to the data directory
	flags.Lookup("sqlite").NoOptDefVal = paths.GetExportPath()
}

// validate checks every flag before any network call
func (f *runFlags) validate() (*runParams, error) {
	label, err := classify.ParseLabel(f.studyType)
	if err != nil {
		return nil, fmt.Errorf("invalid --type %q: must be one of %s", f.studyType, labelList())
	}

	if f.output == "" {
		return nil, fmt.Errorf("--output is required")
	}
	info, err := os.Stat(f.output)
	if err != nil {
		return nil, fmt.Errorf("output directory %s does not exist", f.output)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", f.output)
	}

	p := &runParams{
		label:       label,
		outputDir:   f.output,
		limit:       cfg.Pipeline.Limit,
		concurrency: cfg.Pipeline.Concurrency,
	}

	if f.limit != "" {
		n, err := strconv.Atoi(strings.TrimSpace(f.limit))
		if err != nil {
			return nil, fmt.Errorf("invalid --limit %q: must be a number", f.limit)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid --limit %d: must not be negative", n)
		}
		p.limit = n
	}

	if f.resolve != resolveNone {
		d, err := resolve.ParseDirection(f.resolve)
		if err != nil {
			return nil, fmt.Errorf("invalid --resolve %q: must be geo-to-sra, sra-to-geo or none", f.resolve)
		}
		p.direction = d
	}

	if f.concurrency < 0 {
		return nil, fmt.Errorf("invalid --concurrency %d: must be positive", f.concurrency)
	}
	if f.concurrency > 0 {
		p.concurrency = f.concurrency
	}

	return p, nil
}

func labelList() string {
	names := make([]string, len(classify.Labels))
	for i, l := range classify.Labels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

func newListCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Map studies listed by the ENA browser",
		Long: `List GEO-brokered transcriptomics studies through the ENA browser search,
keep the ones of the requested type, resolve missing SRA studies through
EBI search and write the GEO/SRA mapping.`,
		Example: `  geopool list --type bulk --output ./out
  geopool list --type singlecell --output ./out --limit 500 --table ./out/studies.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), f, pipeline.SourceENA)
		},
	}
	f.register(cmd, string(resolve.GEOToSRA))
	cmd.Flags().BoolVar(&f.exclude, "exclude-tracked", false, "Drop studies already tracked by RNASeq-er")
	return cmd
}

func newPoolCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Map studies processed by RNASeq-er",
		Long: `List the studies RNASeq-er has processed for the requested type, drop the
ones already tracked through the AE2 to ENA mapping, resolve GEO series
through NCBI eutils and write the GEO/SRA mapping.`,
		Example: `  geopool pool --type bulk --output ./out
  geopool pool --type singlecell --output ./out --no-exclude`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.exclude = !f.noExclude
			return runPipeline(cmd.Context(), f, pipeline.SourceRNASeqer)
		},
	}
	f.register(cmd, string(resolve.SRAToGEO))
	cmd.Flags().BoolVar(&f.noExclude, "no-exclude", false, "Keep studies already tracked by RNASeq-er")
	return cmd
}

func newResolver(d resolve.Direction, client *httpclient.Client) resolve.Resolver {
	switch d {
	case resolve.GEOToSRA:
		return resolve.NewEBISearch(client, cfg.APIs.EBISearch)
	case resolve.SRAToGEO:
		return resolve.NewEutils(client, cfg.APIs.Eutils)
	}
	return nil
}

func runPipeline(ctx context.Context, f *runFlags, source string) error {
	params, err := f.validate()
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client := httpclient.New(httpclient.OptionsFromConfig(cfg))
	rnaseqer := pipeline.NewRNASeqer(client, cfg.APIs.RNASeqer)
	m := metrics.New()

	runner := &pipeline.Runner{
		Metrics:     m,
		Concurrency: params.concurrency,
		Exclude:     f.exclude,
		Tracked:     exclude.NewRemote(client, rnaseqer.TrackedURL()),
	}
	switch source {
	case pipeline.SourceENA:
		runner.Source = pipeline.NewENA(client, cfg.APIs.ENABrowser)
	default:
		runner.Source = rnaseqer
	}
	if params.direction != "" {
		runner.Resolver = newResolver(params.direction, client)
	}

	opts := pipeline.Options{
		Label:      params.label,
		Limit:      params.limit,
		OutputDir:  params.outputDir,
		TablePath:  f.table,
		SQLitePath: f.sqlite,
	}

	var report *pipeline.Report
	run := func(update func(string)) error {
		runner.OnStage = update
		report, err = runner.Run(ctx, opts)
		return err
	}
	// Info logs are held back while the spinner draws
	if quiet || verbose {
		err = run(nil)
	} else {
		restore := raiseLogLevel(slog.LevelWarn)
		spinner := ui.NewSpinner(os.Stderr, "Starting")
		spinner.Start()
		err = run(spinner.Update)
		spinner.Stop("")
		restore()
	}
	if err != nil {
		return err
	}
	slog.Info("run finished", "summary", report.String(), "duration", report.Duration)

	if f.metricsFile != "" {
		if err := m.WriteTextfile(f.metricsFile); err != nil {
			return err
		}
	}

	if !quiet {
		printSummary(report)
		printSuccess("Wrote %d rows to %s", len(report.Mapping), report.OutputPath)
	}
	return nil
}

func printSummary(report *pipeline.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Stage", "Count"})
	for _, row := range report.Summary() {
		t.AppendRow(table.Row{row[0], row[1]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
