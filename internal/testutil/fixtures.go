package testutil

import (
	"encoding/json"
	"encoding/xml"

	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/parser"
)

// Fixture data for tests

// BulkStudy returns a bulk study with both accessions set.
func BulkStudy() models.Study {
	return models.Study{
		ProjectID: "PRJNA100001",
		SRAStudy:  "SRP100001",
		GEOSeries: "GSE100001",
		Title:     "RNA-seq of liver tissue, bulk samples",
		Organism:  "Mus musculus",
	}
}

// SingleCellStudy returns a single-cell study with both accessions set.
func SingleCellStudy() models.Study {
	return models.Study{
		ProjectID: "PRJNA200001",
		SRAStudy:  "SRP200001",
		GEOSeries: "GSE200001",
		Title:     "Single-cell RNA-seq of mouse cortex",
		Organism:  "Mus musculus",
	}
}

// ProjectSetXML renders studies as an ENA PROJECT_SET document.
func ProjectSetXML(studies ...models.Study) string {
	set := parser.ProjectSet{Projects: make([]parser.Project, 0, len(studies))}
	for _, s := range studies {
		ids := &parser.Identifiers{}
		if s.ProjectID != "" {
			ids.PrimaryID = &parser.Identifier{Value: s.ProjectID}
		}
		if s.SRAStudy != "" {
			ids.SecondaryIDs = []parser.Identifier{{Value: s.SRAStudy}}
		}
		if s.GEOSeries != "" {
			ids.ExternalIDs = []parser.QualifiedID{{Namespace: "GEO", Value: s.GEOSeries}}
		}

		p := parser.Project{
			Accession:   s.ProjectID,
			CenterName:  "GEO",
			Identifiers: ids,
			Title:       s.Title,
		}
		if s.Organism != "" {
			p.SubmissionProject = &parser.SubmissionProject{
				Organism: &parser.Organism{ScientificName: s.Organism},
			}
		}
		set.Projects = append(set.Projects, p)
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		panic(err)
	}
	return xml.Header + string(data)
}

// StudyListJSON renders SRA studies as a RNASeq-er study listing.
func StudyListJSON(accessions ...string) string {
	entries := make([]parser.StudyListEntry, 0, len(accessions))
	for _, acc := range accessions {
		entries = append(entries, parser.StudyListEntry{StudyID: acc, Organism: "homo_sapiens"})
	}

	data, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	return string(data)
}
