package models

import "strings"

// Study represents a GEO-brokered transcriptomics study as read from a
// registry listing. Missing fields are empty strings, never absent.
type Study struct {
	ProjectID string `json:"project_id" db:"project_id"` // PRIMARY_ID, e.g. PRJNA123456
	SRAStudy  string `json:"sra_study" db:"sra_study"`   // SECONDARY_ID, e.g. SRP000001
	GEOSeries string `json:"geo_series" db:"geo_series"` // EXTERNAL_ID, e.g. GSE12345
	Title     string `json:"title" db:"title"`
	Organism  string `json:"organism" db:"organism"`
}

// Key returns the identifier a study is best known by, for logging.
func (s Study) Key() string {
	switch {
	case s.SRAStudy != "":
		return s.SRAStudy
	case s.GEOSeries != "":
		return s.GEOSeries
	default:
		return s.ProjectID
	}
}

// Pair is one row of the GEO/SRA mapping file.
type Pair struct {
	GEOSeries string `json:"geo_series"`
	SRAStudy  string `json:"sra_study"`
}

// Complete reports whether both sides of the pair are set.
func (p Pair) Complete() bool {
	return strings.TrimSpace(p.GEOSeries) != "" && strings.TrimSpace(p.SRAStudy) != ""
}

// Mapping is the ordered GEO/SRA table persisted to disk.
type Mapping []Pair
