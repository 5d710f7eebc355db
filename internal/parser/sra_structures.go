package parser

import (
	"encoding/xml"
	"strings"

	"github.com/nishad/geopool/internal/models"
)

// =============== PROJECT STRUCTURES ===============

// ProjectSet is the document returned by the ENA browser XML search for
// read_study results
type ProjectSet struct {
	XMLName  xml.Name  `xml:"PROJECT_SET"`
	Projects []Project `xml:"PROJECT"`
}

// Project represents an ENA/INSDC project record
type Project struct {
	XMLName xml.Name `xml:"PROJECT"`

	Alias      string `xml:"alias,attr,omitempty"`
	CenterName string `xml:"center_name,attr,omitempty"`
	Accession  string `xml:"accession,attr,omitempty"`

	Identifiers       *Identifiers       `xml:"IDENTIFIERS"`
	Title             string             `xml:"TITLE"`
	Description       string             `xml:"DESCRIPTION"`
	SubmissionProject *SubmissionProject `xml:"SUBMISSION_PROJECT"`
}

// SubmissionProject carries the organism of a sequencing project
type SubmissionProject struct {
	Organism *Organism `xml:"ORGANISM"`
}

// Organism identifies the source organism of a project
type Organism struct {
	TaxonID        string `xml:"TAXON_ID"`
	ScientificName string `xml:"SCIENTIFIC_NAME"`
}

// =============== STUDY STRUCTURES ===============

// StudySet represents a collection of studies
type StudySet struct {
	XMLName xml.Name `xml:"STUDY_SET"`
	Studies []Study  `xml:"STUDY"`
}

// Study represents an SRA study record
type Study struct {
	XMLName xml.Name `xml:"STUDY"`

	Alias      string `xml:"alias,attr,omitempty"`
	CenterName string `xml:"center_name,attr,omitempty"`
	BrokerName string `xml:"broker_name,attr,omitempty"`
	Accession  string `xml:"accession,attr,omitempty"`

	Identifiers *Identifiers    `xml:"IDENTIFIERS"`
	Descriptor  StudyDescriptor `xml:"DESCRIPTOR"`
}

// StudyDescriptor contains study metadata
type StudyDescriptor struct {
	StudyTitle    string `xml:"STUDY_TITLE"`
	StudyAbstract string `xml:"STUDY_ABSTRACT"`
}

// =============== COMMON STRUCTURES ===============

// Identifiers contains record identifiers
type Identifiers struct {
	PrimaryID    *Identifier   `xml:"PRIMARY_ID"`
	SecondaryIDs []Identifier  `xml:"SECONDARY_ID"`
	ExternalIDs  []QualifiedID `xml:"EXTERNAL_ID"`
	SubmitterIDs []QualifiedID `xml:"SUBMITTER_ID"`
}

// Identifier represents a simple identifier
type Identifier struct {
	Label string `xml:"label,attr,omitempty"`
	Value string `xml:",chardata"`
}

// QualifiedID represents an identifier with namespace
type QualifiedID struct {
	Namespace string `xml:"namespace,attr"`
	Label     string `xml:"label,attr,omitempty"`
	Value     string `xml:",chardata"`
}

// MultiValueSeparator joins identifiers when an element repeats. The
// mapping filter treats such values as multi-valued and drops the row.
const MultiValueSeparator = ","

// =============== HELPER FUNCTIONS ===============

// Primary returns the PRIMARY_ID text or "".
func (ids *Identifiers) Primary() string {
	if ids == nil || ids.PrimaryID == nil {
		return ""
	}
	return strings.TrimSpace(ids.PrimaryID.Value)
}

// Secondary returns all SECONDARY_ID values joined by MultiValueSeparator.
func (ids *Identifiers) Secondary() string {
	if ids == nil {
		return ""
	}
	var values []string
	for _, id := range ids.SecondaryIDs {
		if v := strings.TrimSpace(id.Value); v != "" {
			values = append(values, v)
		}
	}
	return strings.Join(values, MultiValueSeparator)
}

// External returns the EXTERNAL_ID text. IDs in the GEO namespace win over
// others; repeated values are joined by MultiValueSeparator.
func (ids *Identifiers) External() string {
	if ids == nil {
		return ""
	}
	var geo, other []string
	for _, id := range ids.ExternalIDs {
		v := strings.TrimSpace(id.Value)
		if v == "" {
			continue
		}
		if strings.EqualFold(id.Namespace, "GEO") {
			geo = append(geo, v)
		} else {
			other = append(other, v)
		}
	}
	if len(geo) > 0 {
		return strings.Join(geo, MultiValueSeparator)
	}
	return strings.Join(other, MultiValueSeparator)
}

// Study flattens the project into a study record
func (p *Project) Study() models.Study {
	s := models.Study{
		ProjectID: p.Identifiers.Primary(),
		SRAStudy:  p.Identifiers.Secondary(),
		GEOSeries: p.Identifiers.External(),
		Title:     strings.TrimSpace(p.Title),
	}
	if s.ProjectID == "" {
		s.ProjectID = p.Accession
	}
	if p.SubmissionProject != nil && p.SubmissionProject.Organism != nil {
		s.Organism = strings.TrimSpace(p.SubmissionProject.Organism.ScientificName)
	}
	return s
}

// Study flattens the study into a study record. For STUDY documents the
// primary id is the SRA study and the BioProject sits among the secondaries.
func (st *Study) Study() models.Study {
	s := models.Study{
		SRAStudy:  st.Identifiers.Primary(),
		GEOSeries: st.Identifiers.External(),
		Title:     strings.TrimSpace(st.Descriptor.StudyTitle),
	}
	if s.SRAStudy == "" {
		s.SRAStudy = st.Accession
	}
	if st.Identifiers != nil {
		for _, id := range st.Identifiers.SecondaryIDs {
			if strings.HasPrefix(id.Value, "PRJ") {
				s.ProjectID = strings.TrimSpace(id.Value)
				break
			}
		}
	}
	return s
}
