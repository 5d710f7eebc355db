package resolve

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Memo remembers lookups for the lifetime of a run so that an accession
// listed twice is only queried once and always yields the same result.
// Concurrent lookups of the same key share one upstream call. Errors are
// not remembered.
type Memo struct {
	next  Resolver
	cache *gocache.Cache
	group singleflight.Group
}

// NewMemo wraps next with a run-scoped lookup cache
func NewMemo(next Resolver) *Memo {
	return &Memo{
		next:  next,
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Direction implements Resolver
func (m *Memo) Direction() Direction { return m.next.Direction() }

// Lookup implements Resolver
func (m *Memo) Lookup(ctx context.Context, key string) (Result, error) {
	if v, found := m.cache.Get(key); found {
		return v.(Result), nil
	}

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		if v, found := m.cache.Get(key); found {
			return v.(Result), nil
		}
		res, err := m.next.Lookup(ctx, key)
		if err != nil {
			return Result{}, err
		}
		m.cache.SetDefault(key, res)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Len returns the number of remembered lookups
func (m *Memo) Len() int {
	return m.cache.ItemCount()
}
