package testutil

import (
	"context"
	"sync"

	"github.com/nishad/geopool/internal/resolve"
)

// MockResolver is a resolve.Resolver backed by a fixed answer table.
type MockResolver struct {
	mu      sync.Mutex
	lookups []string

	Dir     resolve.Direction
	Answers map[string][]string // key -> matches
	Err     error               // returned from every lookup when set
}

// Direction implements resolve.Resolver.
func (m *MockResolver) Direction() resolve.Direction {
	if m.Dir == "" {
		return resolve.GEOToSRA
	}
	return m.Dir
}

// Lookup records the key and answers from the table.
func (m *MockResolver) Lookup(_ context.Context, key string) (resolve.Result, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, key)
	m.mu.Unlock()

	if m.Err != nil {
		return resolve.Result{}, m.Err
	}

	res := resolve.Result{Key: key, Matches: len(m.Answers[key])}
	switch res.Matches {
	case 0:
		res.Outcome = resolve.NotFound
	case 1:
		res.Outcome = resolve.Resolved
		res.ID = m.Answers[key][0]
	default:
		res.Outcome = resolve.Ambiguous
	}
	return res, nil
}

// Lookups returns the keys looked up so far.
func (m *MockResolver) Lookups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lookups...)
}
