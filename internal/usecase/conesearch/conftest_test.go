package conesearch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// pointsBackend answers cones over an in-memory row list by exact separation.
type pointsBackend struct {
	kind catalog.Kind
	name string
	rows []map[string]any

	calls      atomic.Int32
	lastFields []string
	lastFilter backend.Filters
	mu         sync.Mutex

	// hook runs before every query; a non-nil error fails the call.
	hook func(ctx context.Context) error
}

func (b *pointsBackend) Kind() catalog.Kind       { return b.kind }
func (b *pointsBackend) Name() string             { return b.name }
func (b *pointsBackend) InternalKeys() []string   { return []string{"__vector"} }
func (b *pointsBackend) CoordinateKeys() []string { return []string{"ra", "dec"} }

func (b *pointsBackend) Describe(context.Context) (catalog.Descriptor, error) {
	return catalog.Descriptor{Name: b.name, Kind: b.kind}, nil
}

func (b *pointsBackend) Exists(ctx context.Context, c sky.Position, r float64, f backend.Filters) (bool, error) {
	hits, err := b.AllWithin(ctx, c, r, nil, f)
	return len(hits) > 0, err
}

func (b *pointsBackend) Nearest(
	ctx context.Context, c sky.Position, r float64, fields []string, f backend.Filters,
) (*backend.Hit, error) {
	hits, err := b.AllWithin(ctx, c, r, fields, f)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h.DistArcsec < best.DistArcsec {
			best = h
		}
	}
	return &best, nil
}

func (b *pointsBackend) AllWithin(
	ctx context.Context, c sky.Position, r float64, fields []string, f backend.Filters,
) ([]backend.Hit, error) {
	b.calls.Add(1)
	b.mu.Lock()
	b.lastFields = fields
	b.lastFilter = f
	b.mu.Unlock()
	if b.hook != nil {
		if err := b.hook(ctx); err != nil {
			return nil, err
		}
	}
	var hits []backend.Hit
	for _, row := range b.rows {
		p := sky.Position{RA: row["ra"].(float64), Dec: row["dec"].(float64)}
		d := sky.Separation(c, p)
		if d >= r {
			continue
		}
		if f.Post.Eval(row, d) {
			hits = append(hits, backend.Hit{Record: row, DistArcsec: d})
		}
	}
	return hits, nil
}

// fakeResolver serves a fixed backend table and counts lookups.
type fakeResolver struct {
	backends map[catalog.Kind]map[string]backend.Backend
	resolves atomic.Int32
}

func newResolver(bs ...*pointsBackend) *fakeResolver {
	r := &fakeResolver{backends: map[catalog.Kind]map[string]backend.Backend{}}
	for _, b := range bs {
		if r.backends[b.kind] == nil {
			r.backends[b.kind] = map[string]backend.Backend{}
		}
		r.backends[b.kind][b.name] = b
	}
	return r
}

func (r *fakeResolver) Resolve(_ context.Context, kind catalog.Kind, name string) (backend.Backend, error) {
	r.resolves.Add(1)
	if b, ok := r.backends[kind][name]; ok {
		return b, nil
	}
	return nil, domain.NewUnknownCatalog(string(kind), name, nil)
}

func rosat() *pointsBackend {
	return &pointsBackend{
		kind: catalog.Partitioned,
		name: "ROSATfsc",
		rows: []map[string]any{
			{"ra": 5.1, "dec": 5.0, "name": "1RXS-A", "flux": float32(0.5), "count": int32(3)},
			{"ra": 5.0, "dec": 5.5, "name": "1RXS-B", "flux": float32(1.5), "count": int32(7)},
			{"ra": 6.5, "dec": 5.0, "name": "1RXS-C", "flux": float32(2.5), "count": int32(1)},
		},
	}
}

func milliquas() *pointsBackend {
	return &pointsBackend{
		kind: catalog.Indexed,
		name: "milliquas",
		rows: []map[string]any{
			{"ra": 265.0, "dec": -89.58, "name": "J1740-8935", "z": 1.2, "__vector": "blob"},
			{"ra": 265.5, "dec": -89.585, "name": "J1742-8935", "z": nan(), "__vector": "blob"},
		},
	}
}
