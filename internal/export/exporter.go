package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
)

// StudyRecord is one fetched study together with what the run decided
// about it
type StudyRecord struct {
	models.Study
	Label    string // bulk | singlecell
	Outcome  string // resolution outcome
	Excluded bool   // already tracked downstream
}

// Run is everything a finished run exports to SQLite
type Run struct {
	Source    string // ena | rnaseqer
	Label     string
	Direction string // resolver direction, empty when resolution was off
	Studies   []StudyRecord
	Mapping   models.Mapping
	StartedAt time.Time
}

// Stats holds export statistics
type Stats struct {
	Studies  int
	Mappings int
	Duration time.Duration
}

// Exporter writes a run into a fresh SQLite file
type Exporter struct {
	outputPath string
	tempPath   string
	db         *sql.DB
	stats      *Stats
}

// ExportSQLite writes run to a new SQLite database at path, replacing any
// file already there.
func ExportSQLite(path string, run *Run) (*Stats, error) {
	e, err := NewExporter(path)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	return e.Export(run)
}

// NewExporter creates the temporary target database next to outputPath
func NewExporter(outputPath string) (*Exporter, error) {
	const op = errors.Op("export.NewExporter")

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, errors.E(op, errors.KindIO, err, "failed to create output directory")
	}

	tempPath := outputPath + ".tmp"
	errors.IgnoreError(removeIfExists(tempPath), "stale temp database")

	db, err := sql.Open("sqlite3", tempPath)
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err, "failed to create target database")
	}

	// Single writer, single pass: durability is provided by the final rename.
	pragmas := []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = OFF",
		"PRAGMA locking_mode = EXCLUSIVE",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			os.Remove(tempPath)
			return nil, errors.E(op, errors.KindIO, err, "failed to set pragma")
		}
	}

	return &Exporter{
		outputPath: outputPath,
		tempPath:   tempPath,
		db:         db,
		stats:      &Stats{},
	}, nil
}

// Close cleans up resources. A temp file left behind by a failed export is
// removed.
func (e *Exporter) Close() {
	if e.db != nil {
		e.db.Close()
		e.db = nil
	}
	errors.IgnoreError(removeIfExists(e.tempPath), "temp database cleanup")
}

// Export performs the export process
func (e *Exporter) Export(run *Run) (*Stats, error) {
	const op = errors.Op("export.Export")
	startTime := time.Now()

	if err := e.createSchema(); err != nil {
		return nil, errors.WrapMsg(op, "failed to create schema", err)
	}

	tx, err := e.db.Begin()
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}
	if err := e.insertStudies(tx, run.Studies); err != nil {
		tx.Rollback()
		return nil, errors.WrapMsg(op, "failed to export studies", err)
	}
	if err := e.insertMapping(tx, run.Mapping); err != nil {
		tx.Rollback()
		return nil, errors.WrapMsg(op, "failed to export mapping", err)
	}
	if err := e.insertMetaInfo(tx, run); err != nil {
		tx.Rollback()
		return nil, errors.WrapMsg(op, "failed to write metaInfo", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}

	// Close database before moving
	e.db.Close()
	e.db = nil

	if err := os.Rename(e.tempPath, e.outputPath); err != nil {
		return nil, errors.E(op, errors.KindIO, err, "failed to move database")
	}

	e.stats.Duration = time.Since(startTime)
	return e.stats, nil
}

func (e *Exporter) insertStudies(tx *sql.Tx, studies []StudyRecord) error {
	stmt, err := tx.Prepare(`INSERT INTO studies
		(project_id, sra_study, geo_series, title, organism, label, outcome, excluded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.E(errors.KindIO, err)
	}
	defer stmt.Close()

	for _, s := range studies {
		if _, err := stmt.Exec(
			nullString(s.ProjectID),
			nullString(s.SRAStudy),
			nullString(s.GEOSeries),
			nullString(s.Title),
			nullString(s.Organism),
			s.Label,
			nullString(s.Outcome),
			s.Excluded,
		); err != nil {
			return errors.E(errors.KindIO, err, s.Key())
		}
		e.stats.Studies++
	}
	return nil
}

func (e *Exporter) insertMapping(tx *sql.Tx, mapping models.Mapping) error {
	stmt, err := tx.Prepare(`INSERT INTO mapping (geo_series, sra_study) VALUES (?, ?)`)
	if err != nil {
		return errors.E(errors.KindIO, err)
	}
	defer stmt.Close()

	for _, p := range mapping {
		if _, err := stmt.Exec(p.GEOSeries, p.SRAStudy); err != nil {
			return errors.E(errors.KindIO, err, fmt.Sprintf("%s/%s", p.GEOSeries, p.SRAStudy))
		}
		e.stats.Mappings++
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Helper function to handle NULL strings
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// Helper function to format time for metaInfo
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
