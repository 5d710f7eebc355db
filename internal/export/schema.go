package export

import (
	"database/sql"
	"fmt"
	"strconv"
)

// SchemaVersion is recorded in metaInfo
const SchemaVersion = "1"

// createSchema creates the run tables
func (e *Exporter) createSchema() error {
	schemas := []string{
		`CREATE TABLE metaInfo (name varchar(50), value varchar(50))`,

		// every fetched study, including the ones that did not make the mapping
		`CREATE TABLE studies (
			project_id TEXT,
			sra_study TEXT,
			geo_series TEXT,
			title TEXT,
			organism TEXT,
			label TEXT NOT NULL,
			outcome TEXT,
			excluded INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX studies_sra_idx ON studies (sra_study)`,
		`CREATE INDEX studies_geo_idx ON studies (geo_series)`,

		// rows written to the TSV
		`CREATE TABLE mapping (
			geo_series TEXT NOT NULL,
			sra_study TEXT NOT NULL,
			PRIMARY KEY (geo_series, sra_study)
		)`,
	}

	for _, schema := range schemas {
		if _, err := e.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	return nil
}

// insertMetaInfo records how the run was configured
func (e *Exporter) insertMetaInfo(tx *sql.Tx, run *Run) error {
	metaInfo := [][2]string{
		{"schema version", SchemaVersion},
		{"source", run.Source},
		{"label", run.Label},
		{"direction", run.Direction},
		{"started", formatTime(run.StartedAt)},
		{"studies", strconv.Itoa(len(run.Studies))},
		{"mappings", strconv.Itoa(len(run.Mapping))},
	}

	for _, kv := range metaInfo {
		if _, err := tx.Exec(`INSERT INTO metaInfo (name, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
