package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
)

// ParseStudies decodes an ENA XML document and flattens every PROJECT or
// STUDY element into a study record. Documents with any other root element
// fail with a KindParse error instead of yielding an empty list.
func ParseStudies(r io.Reader) ([]models.Study, error) {
	const op = errors.Op("parser.ParseStudies")

	decoder := xml.NewDecoder(r)
	root, err := firstElement(decoder)
	if err != nil {
		return nil, errors.E(op, errors.KindParse, err, "no root element")
	}

	switch strings.ToUpper(root.Name.Local) {
	case "PROJECT_SET":
		var set ProjectSet
		if err := decoder.DecodeElement(&set, &root); err != nil {
			return nil, errors.E(op, errors.KindParse, err, "failed to decode PROJECT_SET")
		}
		studies := make([]models.Study, 0, len(set.Projects))
		for i := range set.Projects {
			studies = append(studies, set.Projects[i].Study())
		}
		return studies, nil

	case "STUDY_SET":
		var set StudySet
		if err := decoder.DecodeElement(&set, &root); err != nil {
			return nil, errors.E(op, errors.KindParse, err, "failed to decode STUDY_SET")
		}
		studies := make([]models.Study, 0, len(set.Studies))
		for i := range set.Studies {
			studies = append(studies, set.Studies[i].Study())
		}
		return studies, nil

	default:
		return nil, errors.E(op, errors.KindParse,
			fmt.Sprintf("unexpected root element <%s>, want PROJECT_SET or STUDY_SET", root.Name.Local))
	}
}

// firstElement advances the decoder to the first start element
func firstElement(decoder *xml.Decoder) (xml.StartElement, error) {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return xml.StartElement{}, io.ErrUnexpectedEOF
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		if start, ok := token.(xml.StartElement); ok {
			return start, nil
		}
	}
}
