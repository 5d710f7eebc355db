package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
)

// FileName returns the mapping file name for a label
func FileName(label string) string {
	return "geo_" + label + "_rnaseq.tsv"
}

// WriteMapping writes mapping to dir/FileName(label) as header-less
// GEO<TAB>SRA rows and returns the file path. The file is written to a temp
// file in dir and renamed into place, so readers never see a partial file.
func WriteMapping(dir, label string, mapping models.Mapping) (string, error) {
	const op = errors.Op("export.WriteMapping")

	path := filepath.Join(dir, FileName(label))
	err := writeAtomic(path, func(w io.Writer) error {
		tw := newTSVWriter(w)
		for _, p := range mapping {
			if err := tw.Write([]string{p.GEOSeries, p.SRAStudy}); err != nil {
				return err
			}
		}
		tw.Flush()
		return tw.Error()
	})
	if err != nil {
		return "", errors.Wrap(op, err)
	}
	return path, nil
}

// studyTableHeader is the header of the full study table
var studyTableHeader = []string{"project_id", "sra_study", "geo_series", "title", "organism"}

// WriteStudyTable writes the full study table, with a header, to path
func WriteStudyTable(path string, studies []models.Study) error {
	const op = errors.Op("export.WriteStudyTable")

	err := writeAtomic(path, func(w io.Writer) error {
		tw := newTSVWriter(w)
		if err := tw.Write(studyTableHeader); err != nil {
			return err
		}
		for _, s := range studies {
			row := []string{s.ProjectID, s.SRAStudy, s.GEOSeries, s.Title, s.Organism}
			if err := tw.Write(row); err != nil {
				return err
			}
		}
		tw.Flush()
		return tw.Error()
	})
	return errors.Wrap(op, err)
}

func newTSVWriter(w io.Writer) *csv.Writer {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	return tw
}

// writeAtomic runs write against a temp file in path's directory and
// renames it to path on success
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.E(errors.KindIO, err, "failed to create temp file")
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.E(errors.KindIO, err, "failed to write "+path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.E(errors.KindIO, err, "failed to close temp file")
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.E(errors.KindIO, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.E(errors.KindIO, err, "failed to move "+path+" into place")
	}
	return nil
}
