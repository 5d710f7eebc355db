package parser

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
)

// StudyListEntry is one element of the RNASeq-er study listings and of the
// AE2 to ENA mapping. Only the fields geopool reads are declared.
type StudyListEntry struct {
	StudyID  string `json:"STUDY_ID"`
	Organism string `json:"ORGANISM"`
}

// DecodeStudyList decodes a JSON array of study entries. Any other JSON
// shape is a KindParse error.
func DecodeStudyList(r io.Reader) ([]StudyListEntry, error) {
	const op = errors.Op("parser.DecodeStudyList")

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.E(op, errors.KindIO, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errors.E(op, errors.KindParse, "expected a JSON array of studies")
	}

	var entries []StudyListEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, errors.E(op, errors.KindParse, err)
	}
	return entries, nil
}

// ParseStudyList decodes a RNASeq-er study listing into study records.
// Entries without a STUDY_ID are kept with an empty SRA study so the
// mapping filter can account for them.
func ParseStudyList(r io.Reader) ([]models.Study, error) {
	entries, err := DecodeStudyList(r)
	if err != nil {
		return nil, err
	}

	studies := make([]models.Study, 0, len(entries))
	for _, e := range entries {
		studies = append(studies, models.Study{
			SRAStudy: strings.TrimSpace(e.StudyID),
			Organism: strings.TrimSpace(e.Organism),
		})
	}
	return studies, nil
}
