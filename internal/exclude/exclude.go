// Package exclude removes studies that a downstream tracker already knows
// about.
package exclude

import (
	"bytes"
	"context"
	"strings"

	"github.com/nishad/geopool/internal/errors"
	"github.com/nishad/geopool/internal/models"
	"github.com/nishad/geopool/internal/parser"
)

// Getter is the subset of httpclient.Client used to fetch the tracked set
type Getter interface {
	Get(ctx context.Context, url string, params map[string]string) ([]byte, error)
}

// Set is a read-only set of SRA study accessions
type Set map[string]struct{}

// NewSet builds a set from accessions, ignoring blanks
func NewSet(accessions ...string) Set {
	s := make(Set, len(accessions))
	for _, a := range accessions {
		if a = strings.TrimSpace(a); a != "" {
			s[a] = struct{}{}
		}
	}
	return s
}

// Contains reports whether accession is tracked
func (s Set) Contains(accession string) bool {
	_, ok := s[accession]
	return ok
}

// Len returns the number of tracked accessions
func (s Set) Len() int {
	return len(s)
}

// FetchTracked downloads the AE2 to ENA mapping once and returns the SRA
// studies it lists.
func FetchTracked(ctx context.Context, client Getter, url string) (Set, error) {
	const op = errors.Op("exclude.FetchTracked")

	body, err := client.Get(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	entries, err := parser.DecodeStudyList(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(op, err)
	}

	accessions := make([]string, 0, len(entries))
	for _, e := range entries {
		accessions = append(accessions, e.StudyID)
	}
	return NewSet(accessions...), nil
}

// Filter returns the studies whose SRA study is not in tracked, and the
// ones that were removed. Both keep input order; the input is not modified.
func Filter(studies []models.Study, tracked Set) (kept, excluded []models.Study) {
	kept = make([]models.Study, 0, len(studies))
	for _, s := range studies {
		if s.SRAStudy != "" && tracked.Contains(s.SRAStudy) {
			excluded = append(excluded, s)
			continue
		}
		kept = append(kept, s)
	}
	return kept, excluded
}

// Remote fetches the tracked set from a fixed URL
type Remote struct {
	client Getter
	url    string
}

// NewRemote creates a tracked-set source for url
func NewRemote(client Getter, url string) *Remote {
	return &Remote{client: client, url: url}
}

// Tracked fetches the tracked set
func (r *Remote) Tracked(ctx context.Context) (Set, error) {
	return FetchTracked(ctx, r.client, r.url)
}
