package resolve

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nishad/geopool/internal/errors"
)

// sraStudySource tags SRA study entries in EBI search results
const sraStudySource = "sra-study"

// ebiSearchResponse is the JSON body of an EBI search domain query
type ebiSearchResponse struct {
	HitCount *int             `json:"hitCount"`
	Entries  []ebiSearchEntry `json:"entries"`
}

type ebiSearchEntry struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// EBISearch resolves GEO series to SRA studies through the EBI search
// nucleotideSequences domain
type EBISearch struct {
	client  Getter
	baseURL string
}

// NewEBISearch creates an EBI search resolver rooted at baseURL
func NewEBISearch(client Getter, baseURL string) *EBISearch {
	return &EBISearch{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Direction implements Resolver
func (e *EBISearch) Direction() Direction { return GEOToSRA }

// Lookup implements Resolver
func (e *EBISearch) Lookup(ctx context.Context, geoAccession string) (Result, error) {
	const op = errors.Op("resolve.EBISearch")

	body, err := e.client.Get(ctx, e.baseURL+"/nucleotideSequences", map[string]string{
		"query":  geoAccession,
		"format": "json",
	})
	if err != nil {
		return Result{}, errors.Wrap(op, err)
	}

	var resp ebiSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, errors.E(op, errors.KindParse, err, geoAccession)
	}
	if resp.HitCount == nil && resp.Entries == nil {
		return Result{}, errors.E(op, errors.KindParse, geoAccession+": response has neither hitCount nor entries")
	}

	var matches []string
	seen := make(map[string]bool)
	for _, entry := range resp.Entries {
		if entry.Source != sraStudySource || entry.ID == "" || seen[entry.ID] {
			continue
		}
		seen[entry.ID] = true
		matches = append(matches, entry.ID)
	}

	return fromMatches(geoAccession, matches), nil
}
