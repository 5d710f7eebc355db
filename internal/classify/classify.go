// Package classify buckets transcriptomics studies into bulk or single-cell
// by matching keywords in the study title.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
)

// Label is the study category requested on the command line and encoded in
// the output file name.
type Label string

const (
	Bulk       Label = "bulk"
	SingleCell Label = "singlecell"
)

// Labels lists the accepted labels in display order.
var Labels = []Label{Bulk, SingleCell}

var singleCellPattern = regexp.MustCompile(`(?i)single[ _-]cell|cell-to-cell|scRNA|10x|single[ _-]nucleus|snRNA-seq`)

// IsSingleCell reports whether title names a single-cell or single-nucleus study.
func IsSingleCell(title string) bool {
	return title != "" && singleCellPattern.MatchString(title)
}

// Classify returns SingleCell when the title matches a single-cell keyword
// and Bulk otherwise, including for an empty title.
func Classify(title string) Label {
	if IsSingleCell(title) {
		return SingleCell
	}
	return Bulk
}

// ParseLabel validates a label given by the user.
func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.TrimSpace(s)); l {
	case Bulk, SingleCell:
		return l, nil
	}
	return "", errors.E(errors.Op("classify.ParseLabel"), errors.KindValidation,
		fmt.Sprintf("type %q is not recognised, must be %q or %q", s, Bulk, SingleCell))
}

// Partition splits studies by label, keeping their relative order.
func Partition(studies []models.Study) (bulk, singleCell []models.Study) {
	for _, s := range studies {
		if Classify(s.Title) == SingleCell {
			singleCell = append(singleCell, s)
		} else {
			bulk = append(bulk, s)
		}
	}
	return bulk, singleCell
}

// Select returns the studies carrying the given label.
func Select(studies []models.Study, label Label) []models.Study {
	bulk, singleCell := Partition(studies)
	if label == SingleCell {
		return singleCell
	}
	return bulk
}
