package db

import (
	"context"
	"time"
)

// Store is the read-only catalog storage facade combining all sub-interfaces.
type Store interface {
	Pinger
	HashReader
	IndexInspector
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashReader reads hash records and enumerates keys.
type HashReader interface {
	// HGetAll returns every field of the hash at key. A missing key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexInspector reports on FT indexes.
type IndexInspector interface {
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides vector searches over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	// SearchRange returns every entry whose vector lies within q.Radius of q.Vector.
	// Implementations may return extra entries beyond the radius but never miss one inside it.
	SearchRange(ctx context.Context, q *RangeQuery) (*SearchResult, error)
}
