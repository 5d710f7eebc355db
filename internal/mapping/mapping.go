// Package mapping builds the GEO/SRA table written for the downstream
// importer and enforces its invariants: both ids present, single-valued,
// no duplicate rows, and each id paired with exactly one counterpart.
package mapping

import (
	"strings"
	"unicode"

	"github.com/nishad/geopool/internal/models"
)

// Reason explains why a row was dropped
type Reason string

const (
	ReasonEmptyID     Reason = "empty_id"
	ReasonMultiValued Reason = "multi_valued"
	ReasonDuplicate   Reason = "duplicate"
	ReasonConflict    Reason = "conflict" // id paired with more than one counterpart
)

// Reasons lists every drop reason in report order
var Reasons = []Reason{ReasonEmptyID, ReasonMultiValued, ReasonDuplicate, ReasonConflict}

// Drop is a row removed by Filter
type Drop struct {
	Pair   models.Pair
	Reason Reason
}

// Build turns studies into mapping rows, in input order
func Build(studies []models.Study) models.Mapping {
	m := make(models.Mapping, 0, len(studies))
	for _, s := range studies {
		m = append(m, models.Pair{
			GEOSeries: strings.TrimSpace(s.GEOSeries),
			SRAStudy:  strings.TrimSpace(s.SRAStudy),
		})
	}
	return m
}

// MultiValued reports whether id holds more than one accession
func MultiValued(id string) bool {
	return strings.ContainsAny(id, ",;|") || strings.IndexFunc(id, unicode.IsSpace) >= 0
}

// Filter drops rows that break the mapping invariants. Rows are repaired
// never; kept rows stay in input order.
func Filter(m models.Mapping) (kept models.Mapping, dropped []Drop) {
	valid := make(models.Mapping, 0, len(m))
	for _, p := range m {
		switch {
		case !p.Complete():
			dropped = append(dropped, Drop{Pair: p, Reason: ReasonEmptyID})
		case MultiValued(p.GEOSeries) || MultiValued(p.SRAStudy):
			dropped = append(dropped, Drop{Pair: p, Reason: ReasonMultiValued})
		default:
			valid = append(valid, p)
		}
	}

	geoPartners := make(map[string]map[string]bool)
	sraPartners := make(map[string]map[string]bool)
	for _, p := range valid {
		addPartner(geoPartners, p.GEOSeries, p.SRAStudy)
		addPartner(sraPartners, p.SRAStudy, p.GEOSeries)
	}

	kept = make(models.Mapping, 0, len(valid))
	seen := make(map[models.Pair]bool, len(valid))
	for _, p := range valid {
		switch {
		case len(geoPartners[p.GEOSeries]) > 1 || len(sraPartners[p.SRAStudy]) > 1:
			dropped = append(dropped, Drop{Pair: p, Reason: ReasonConflict})
		case seen[p]:
			dropped = append(dropped, Drop{Pair: p, Reason: ReasonDuplicate})
		default:
			seen[p] = true
			kept = append(kept, p)
		}
	}

	return kept, dropped
}

// CountReasons tallies drops by reason
func CountReasons(dropped []Drop) map[Reason]int {
	counts := make(map[Reason]int, len(Reasons))
	for _, d := range dropped {
		counts[d.Reason]++
	}
	return counts
}

func addPartner(index map[string]map[string]bool, id, partner string) {
	partners, ok := index[id]
	if !ok {
		partners = make(map[string]bool)
		index[id] = partners
	}
	partners[partner] = true
}
