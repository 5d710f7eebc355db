// Package pipeline runs one listing through classification, resolution,
// exclusion and the mapping filter, and writes the result.
//
// A run is a single pass: fetch -> classify -> resolve -> exclude ->
// filter -> write. Transport and parse failures abort it before anything
// is written; lookups that find nothing, or too much, are counted and the
// record carries on.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nishad/geopool/internal/classify"
	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/exclude"
	"github.com/nishad/geopool/internal/export"
	"github.com/nishad/geopool/internal/mapping"
	"github.com/nishad/geopool/internal/metrics"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/resolve"
)

// TrackedSource provides the accessions already tracked downstream
type TrackedSource interface {
	Tracked(ctx context.Context) (exclude.Set, error)
}

// Runner wires the stages of a run
type Runner struct {
	Source      Source
	Resolver    resolve.Resolver // nil disables resolution
	Tracked     TrackedSource    // required when Exclude is set
	Metrics     *metrics.Metrics // nil allocates a private set
	Concurrency int
	Exclude     bool
	OnStage     func(msg string) // optional progress hook
}

// Options are the per-run parameters
type Options struct {
	Label      classify.Label
	Limit      int
	OutputDir  string // directory of the mapping file
	TablePath  string // optional full study table
	SQLitePath string // optional SQLite export
}

// Run executes the pipeline and writes the mapping file
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	const op = errors.Op("pipeline.Run")

	if r.Source == nil {
		return nil, errors.E(op, errors.KindConfig, "no source configured")
	}
	if r.Exclude && r.Tracked == nil {
		return nil, errors.E(op, errors.KindConfig, "exclusion requested without a tracked source")
	}
	if r.Metrics == nil {
		r.Metrics = metrics.New()
	}

	report := newReport(r.Source.Name(), opts.Label)
	if r.Resolver != nil {
		report.Direction = r.Resolver.Direction()
	}

	// Fetch
	r.stage("Fetching studies from " + report.Source)
	studies, selected, err := r.Source.Fetch(ctx, opts.Label, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}
	report.Fetched = len(studies)
	r.Metrics.StudiesFetched.Add(float64(len(studies)))
	slog.InfoContext(ctx, "fetched studies", "source", report.Source, "count", len(studies))

	// Classify
	if selected {
		report.Classified[opts.Label] = len(studies)
	} else {
		bulk, singleCell := classify.Partition(studies)
		report.Classified[classify.Bulk] = len(bulk)
		report.Classified[classify.SingleCell] = len(singleCell)
		studies = classify.Select(studies, opts.Label)
	}
	for label, n := range report.Classified {
		r.Metrics.StudiesClassified.WithLabelValues(string(label)).Add(float64(n))
	}
	report.Selected = len(studies)
	slog.InfoContext(ctx, "classified studies", "label", opts.Label, "selected", len(studies),
		"bulk", report.Classified[classify.Bulk], "singlecell", report.Classified[classify.SingleCell])

	// Resolve
	outcomes := make([]resolve.Outcome, len(studies))
	if r.Resolver != nil {
		r.stage(fmt.Sprintf("Resolving %d studies (%s)", len(studies), report.Direction))
		var results []resolve.Result
		studies, results, err = resolve.ResolveAll(ctx, resolve.NewMemo(r.Resolver), studies, r.Concurrency)
		if err != nil {
			return nil, errors.Wrap(op, err)
		}
		for i, res := range results {
			outcomes[i] = res.Outcome
			report.Outcomes[res.Outcome]++
			r.Metrics.Resolutions.WithLabelValues(string(res.Outcome)).Inc()
		}
		slog.InfoContext(ctx, "resolved accessions", "direction", report.Direction,
			"resolved", report.Outcomes[resolve.Resolved],
			"not_found", report.Outcomes[resolve.NotFound],
			"ambiguous", report.Outcomes[resolve.Ambiguous],
			"skipped", report.Outcomes[resolve.Skipped])
	}

	// Exclude
	kept := studies
	excluded := make(map[int]bool)
	if r.Exclude {
		r.stage("Fetching tracked studies")
		tracked, err := r.Tracked.Tracked(ctx)
		if err != nil {
			return nil, errors.Wrap(op, err)
		}
		var removed []models.Study
		kept, removed = exclude.Filter(studies, tracked)
		for i, s := range studies {
			if s.SRAStudy != "" && tracked.Contains(s.SRAStudy) {
				excluded[i] = true
			}
		}
		report.Excluded = len(removed)
		r.Metrics.StudiesExcluded.Add(float64(len(removed)))
		slog.InfoContext(ctx, "excluded tracked studies", "tracked", tracked.Len(), "excluded", len(removed))
	}

	report.Studies = make([]export.StudyRecord, len(studies))
	for i, s := range studies {
		report.Studies[i] = export.StudyRecord{
			Study:    s,
			Label:    string(opts.Label),
			Outcome:  string(outcomes[i]),
			Excluded: excluded[i],
		}
	}

	// Filter
	var dropped []mapping.Drop
	report.Mapping, dropped = mapping.Filter(mapping.Build(kept))
	skips := errors.NewSkipCounter("mapping.filter")
	for _, d := range dropped {
		skips.SkipReason(string(d.Reason), d.Pair.GEOSeries+"\t"+d.Pair.SRAStudy)
		report.Dropped[d.Reason]++
		r.Metrics.RowsDropped.WithLabelValues(string(d.Reason)).Inc()
	}
	skips.Report()

	// Write
	r.stage("Writing mapping")
	if err := r.write(ctx, opts, report, kept); err != nil {
		return nil, errors.Wrap(op, err)
	}

	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

func (r *Runner) stage(msg string) {
	if r.OnStage != nil {
		r.OnStage(msg)
	}
}

func (r *Runner) write(ctx context.Context, opts Options, report *Report, kept []models.Study) error {
	path, err := export.WriteMapping(opts.OutputDir, string(opts.Label), report.Mapping)
	if err != nil {
		return err
	}
	report.OutputPath = path
	r.Metrics.RowsWritten.Add(float64(len(report.Mapping)))
	slog.InfoContext(ctx, "wrote mapping", "path", path, "rows", len(report.Mapping))

	if opts.TablePath != "" {
		if err := export.WriteStudyTable(opts.TablePath, kept); err != nil {
			return err
		}
		slog.InfoContext(ctx, "wrote study table", "path", opts.TablePath, "rows", len(kept))
	}

	if opts.SQLitePath != "" {
		stats, err := export.ExportSQLite(opts.SQLitePath, report.ExportRun())
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "exported run", "path", opts.SQLitePath,
			"studies", stats.Studies, "mappings", stats.Mappings, "duration", stats.Duration)
	}
	return nil
}
