package pipeline

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/nishad/geopool/internal/classify"
	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/parser"
)

// Source names
const (
	SourceENA      = "ena"
	SourceRNASeqer = "rnaseqer"
)

// enaQuery selects GEO-brokered transcriptomics studies
const enaQuery = `library_source="TRANSCRIPTOMIC" AND center_name="GEO"`

// Getter is the subset of httpclient.Client the sources use
type Getter interface {
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}

// Source fetches the study listing a run starts from
type Source interface {
	Name() string
	// Fetch returns at most limit studies. Sources that list a single label
	// report selected=true and only return studies of that label.
	Fetch(ctx context.Context, label classify.Label, limit int) (studies []models.Study, selected bool, err error)
}

// ENA lists GEO-brokered transcriptomics studies through the ENA browser
// XML search. Labels are assigned afterwards by title.
type ENA struct {
	client  Getter
	baseURL string
}

// NewENA creates an ENA source rooted at baseURL
func NewENA(client Getter, baseURL string) *ENA {
	return &ENA{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Source
func (e *ENA) Name() string { return SourceENA }

// Fetch implements Source
func (e *ENA) Fetch(ctx context.Context, _ classify.Label, limit int) ([]models.Study, bool, error) {
	const op = errors.Op("pipeline.ENA")

	body, err := e.client.Get(ctx, e.baseURL+"/xml/search", map[string]string{
		"result":             "read_study",
		"query":              enaQuery,
		"limit":              strconv.Itoa(limit),
		"gzip":               "false",
		"dataPortal":         "ena",
		"includeMetagenomes": "false",
	})
	if err != nil {
		return nil, false, errors.Wrap(op, err)
	}

	studies, err := parser.ParseStudies(bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(op, err)
	}
	return studies, false, nil
}

// RNASeqer lists the studies the RNASeq-er service has processed, one
// endpoint per label
type RNASeqer struct {
	client  Getter
	baseURL string
}

// NewRNASeqer creates a RNASeq-er source rooted at baseURL
func NewRNASeqer(client Getter, baseURL string) *RNASeqer {
	return &RNASeqer{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Source
func (r *RNASeqer) Name() string { return SourceRNASeqer }

// TrackedURL returns the AE2 to ENA mapping endpoint
func (r *RNASeqer) TrackedURL() string {
	return r.baseURL + "/getAE2ToENAMapping"
}

// Fetch implements Source. The listing has no server-side bound, so limit
// truncates it.
func (r *RNASeqer) Fetch(ctx context.Context, label classify.Label, limit int) ([]models.Study, bool, error) {
	const op = errors.Op("pipeline.RNASeqer")

	var endpoint string
	switch label {
	case classify.Bulk:
		endpoint = "/getBulkRNASeqStudiesInSRA"
	case classify.SingleCell:
		endpoint = "/getSingleCellStudies"
	default:
		return nil, false, errors.E(op, errors.KindValidation, "unknown label "+string(label))
	}

	body, err := r.client.Get(ctx, r.baseURL+endpoint, nil)
	if err != nil {
		return nil, false, errors.Wrap(op, err)
	}

	studies, err := parser.ParseStudyList(bytes.NewReader(body))
	if err != nil {
		return nil, false, errors.Wrap(op, err)
	}
	if limit > 0 && len(studies) > limit {
		studies = studies[:limit]
	}
	return studies, true, nil
}
