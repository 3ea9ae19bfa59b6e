// Package valkey implements db.Store for valkey-search, which answers KNN queries
// but has no VECTOR_RANGE clause.
package valkey

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/conesearch/internal/db"
	"github.com/kailas-cloud/conesearch/internal/db/redis"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// InitialK is the first KNN size tried when emulating a range search.
const InitialK = 64

// Store shares the Redis command set and replaces range search with expanding KNN.
type Store struct {
	*redis.Store
}

// NewStore creates a Valkey store via rueidis.
func NewStore(cfg redis.Config) (*Store, error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Store: redis.NewStoreWithClient(client)}, nil
}

func newStore(c rueidis.Client) *Store {
	return &Store{Store: redis.NewStoreWithClient(c)}
}

// SearchRange doubles K from InitialK until the KNN reply holds fewer than K entries
// or its farthest entry lies outside the radius. Needing more than q.Limit entries
// is ErrRangeTruncated.
func (s *Store) SearchRange(ctx context.Context, q *db.RangeQuery) (*db.SearchResult, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Radius < 0 {
		return nil, fmt.Errorf("radius must be non-negative")
	}

	k := min(InitialK, q.Limit)
	for {
		res, err := s.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    q.IndexName,
			Filters:      q.Filters,
			Vector:       q.Vector,
			K:            k,
			ReturnFields: q.ReturnFields,
		})
		if err != nil {
			return nil, err
		}

		farthest := 0.0
		inside := make([]db.SearchEntry, 0, len(res.Entries))
		for _, e := range res.Entries {
			farthest = max(farthest, e.Score)
			if db.ChordLowerBound(e.Score) <= q.Radius {
				inside = append(inside, e)
			}
		}

		exhausted := len(res.Entries) < k
		if exhausted || db.ChordLowerBound(farthest) > q.Radius {
			return &db.SearchResult{Total: len(inside), Entries: inside}, nil
		}
		if k >= q.Limit {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: more than %d candidates", db.ErrRangeTruncated, q.Limit)}
		}
		k = min(k*2, q.Limit)
	}
}
