// Package resolve recovers the missing half of a GEO/SRA accession pair by
// querying an upstream search endpoint with the half that is known.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/mapping"
	"github.com/nishad/geopool/internal/models"
	"golang.org/x/sync/errgroup"
)

// Direction names which accession is looked up from which
type Direction string

const (
	GEOToSRA Direction = "geo-to-sra" // EBI search, GSE -> SRP
	SRAToGEO Direction = "sra-to-geo" // NCBI eutils, SRP -> GSE
)

// ParseDirection validates a direction given by the user
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.TrimSpace(s)); d {
	case GEOToSRA, SRAToGEO:
		return d, nil
	}
	return "", errors.E(errors.Op("resolve.ParseDirection"), errors.KindValidation,
		fmt.Sprintf("resolver %q is not recognised, must be %q or %q", s, GEOToSRA, SRAToGEO))
}

// Outcome classifies a single lookup
type Outcome string

const (
	Resolved  Outcome = "resolved"
	NotFound  Outcome = "not_found" // zero matches
	Ambiguous Outcome = "ambiguous" // more than one match
	Skipped   Outcome = "skipped"   // nothing to resolve, or no usable key
)

// Outcomes lists every outcome in report order
var Outcomes = []Outcome{Resolved, NotFound, Ambiguous, Skipped}

// Result is the outcome of resolving one record
type Result struct {
	Key     string // accession that was looked up
	ID      string // resolved accession, set only when Outcome is Resolved
	Outcome Outcome
	Matches int // number of matches the upstream returned
}

// Resolver looks up the counterpart of a single accession. Not-found and
// ambiguous lookups are results; errors are reserved for transport and
// parse failures.
type Resolver interface {
	Direction() Direction
	Lookup(ctx context.Context, key string) (Result, error)
}

// Getter is the subset of httpclient.Client the resolvers use
type Getter interface {
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}

// fromMatches builds a result from the distinct matches of a lookup
func fromMatches(key string, matches []string) Result {
	res := Result{Key: key, Matches: len(matches)}
	switch len(matches) {
	case 0:
		res.Outcome = NotFound
	case 1:
		res.Outcome = Resolved
		res.ID = matches[0]
	default:
		res.Outcome = Ambiguous
	}
	return res
}

// lookupKey returns the accession to look up for s, or "" when s already
// carries the target accession or has nothing usable to look up with.
func lookupKey(d Direction, s models.Study) string {
	var have, want string
	switch d {
	case GEOToSRA:
		have, want = s.GEOSeries, s.SRAStudy
	case SRAToGEO:
		have, want = s.SRAStudy, s.GEOSeries
	}
	if want != "" || have == "" || mapping.MultiValued(have) {
		return ""
	}
	return have
}

// Resolve resolves one record. Records that already carry the target
// accession are never sent to the resolver.
func Resolve(ctx context.Context, r Resolver, s models.Study) (Result, error) {
	key := lookupKey(r.Direction(), s)
	if key == "" {
		return Result{Key: s.Key(), Outcome: Skipped}, nil
	}
	return r.Lookup(ctx, key)
}

// Apply writes a resolved accession into the missing field of s
func Apply(d Direction, s models.Study, res Result) models.Study {
	if res.Outcome != Resolved {
		return s
	}
	switch d {
	case GEOToSRA:
		s.SRAStudy = res.ID
	case SRAToGEO:
		s.GEOSeries = res.ID
	}
	return s
}

// ResolveAll resolves every record with at most concurrency lookups in
// flight. Each record is resolved on its own; results are returned in input
// order. The first transport or parse failure cancels the rest.
func ResolveAll(ctx context.Context, r Resolver, studies []models.Study, concurrency int) ([]models.Study, []Result, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(studies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range studies {
		i := i
		g.Go(func() error {
			res, err := Resolve(gctx, r, studies[i])
			if err != nil {
				return errors.WrapMsg(errors.Op("resolve.ResolveAll"), studies[i].Key(), err)
			}
			results[i] = res
			logResult(gctx, r.Direction(), res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]models.Study, len(studies))
	for i, s := range studies {
		out[i] = Apply(r.Direction(), s, results[i])
	}
	return out, results, nil
}

func logResult(ctx context.Context, d Direction, res Result) {
	switch res.Outcome {
	case Resolved:
		slog.DebugContext(ctx, "resolved accession", "direction", d, "key", res.Key, "id", res.ID)
	case NotFound:
		slog.DebugContext(ctx, "no counterpart found", "direction", d, "key", res.Key)
	case Ambiguous:
		slog.DebugContext(ctx, "multiple counterparts found", "direction", d, "key", res.Key, "matches", res.Matches)
	}
}
