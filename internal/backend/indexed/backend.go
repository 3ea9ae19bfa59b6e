// Package indexed serves catalogs held in a Valkey or Redis keyspace with a vector index
// over ECEF unit vectors of the source positions.
package indexed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/db"
	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// Compile-time check: Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// nearestProbe is the KNN size of a nearest query. More than one candidate lets the exact
// separation break float32 near-ties.
const nearestProbe = 4

// chordSlack widens range searches to cover float32 rounding of stored vectors.
const chordSlack = 1e-6

// DefaultRangeLimit caps range searches when Options leave it unset.
const DefaultRangeLimit = 100000

// Store is the subset of db.Store the backend consumes.
type Store interface {
	db.HashReader
	db.IndexInspector
	db.Searcher
}

// Options tunes an indexed backend.
type Options struct {
	RangeLimit int
	Logger     *zap.Logger
}

// Backend is a cone-search backend over one indexed catalog.
type Backend struct {
	store      Store
	layout     Layout
	name       string
	raKey      string
	decKey     string
	science    map[string]string
	rangeLimit int
	logger     *zap.Logger
}

// Open resolves the catalog metadata. A catalog without metadata is unknown; one with
// incomplete metadata or no index is malformed.
func Open(ctx context.Context, s Store, layout Layout, name string, opts Options) (*Backend, error) {
	if opts.RangeLimit <= 0 {
		opts.RangeLimit = DefaultRangeLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	meta, err := s.HGetAll(ctx, layout.MetaKeys(name))
	if err != nil {
		return nil, mapErr(name, fmt.Errorf("read coordinate keys: %w", err))
	}
	if len(meta) == 0 {
		return nil, domain.NewUnknownCatalog(string(catalog.Indexed), name, nil)
	}
	raKey, decKey := meta[MetaRAField], meta[MetaDecField]
	if raKey == "" || decKey == "" {
		return nil, domain.MalformedMetadataf("catalog %q: coordinate keys need both %q and %q", name, MetaRAField, MetaDecField)
	}

	exists, err := s.IndexExists(ctx, layout.Index(name))
	if err != nil {
		return nil, mapErr(name, fmt.Errorf("inspect index: %w", err))
	}
	if !exists {
		return nil, domain.MalformedMetadataf("catalog %q: index %s missing", name, layout.Index(name))
	}

	science, err := s.HGetAll(ctx, layout.MetaScience(name))
	if err != nil {
		return nil, mapErr(name, fmt.Errorf("read science metadata: %w", err))
	}

	return &Backend{
		store:      s,
		layout:     layout,
		name:       name,
		raKey:      raKey,
		decKey:     decKey,
		science:    science,
		rangeLimit: opts.RangeLimit,
		logger:     opts.Logger.With(zap.String("catalog", name), zap.String("kind", string(catalog.Indexed))),
	}, nil
}

// Names lists catalogs that carry a metadata key, sorted. Validity is checked by Open.
func Names(ctx context.Context, s db.HashReader, layout Layout) ([]string, error) {
	keys, err := s.Scan(ctx, layout.DiscoveryPattern())
	if err != nil {
		return nil, mapErr("", fmt.Errorf("scan catalogs: %w", err))
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name, ok := layout.NameFromMetaKey(k); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Kind implements backend.Backend.
func (b *Backend) Kind() catalog.Kind { return catalog.Indexed }

// Name implements backend.Backend.
func (b *Backend) Name() string { return b.name }

// InternalKeys implements backend.Backend.
func (b *Backend) InternalKeys() []string { return append([]string(nil), internalKeys...) }

// CoordinateKeys implements backend.Backend.
func (b *Backend) CoordinateKeys() []string { return []string{b.raKey, b.decKey} }

// Exists reports whether a record passing both filters lies within the radius.
func (b *Backend) Exists(ctx context.Context, center sky.Position, radiusArcsec float64, f backend.Filters) (bool, error) {
	if radiusArcsec <= 0 {
		return false, nil
	}
	if f.Post == nil {
		hit, err := b.nearest(ctx, center, radiusArcsec, b.CoordinateKeys(), f.Pre)
		return hit != nil, err
	}

	candidates, err := b.within(ctx, center, radiusArcsec, nil, f.Pre)
	if err != nil {
		return false, err
	}
	for _, h := range candidates {
		if f.Post.Eval(h.Record, h.DistArcsec) {
			return true, nil
		}
	}
	return false, nil
}

// Nearest returns the closest record passing both filters, or nil.
func (b *Backend) Nearest(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f backend.Filters,
) (*backend.Hit, error) {
	if radiusArcsec <= 0 {
		return nil, nil
	}
	if f.Post == nil {
		return b.nearest(ctx, center, radiusArcsec, b.withCoordinates(fields), f.Pre)
	}

	hits, err := b.AllWithin(ctx, center, radiusArcsec, nil, f)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	best := 0
	for i := range hits {
		if hits[i].DistArcsec < hits[best].DistArcsec {
			best = i
		}
	}
	return &hits[best], nil
}

// AllWithin returns every record passing both filters, or nil. A post-filter disables
// field pushdown since it may reference any column.
func (b *Backend) AllWithin(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f backend.Filters,
) ([]backend.Hit, error) {
	if radiusArcsec <= 0 {
		return nil, nil
	}
	if f.Post != nil {
		fields = nil
	}
	candidates, err := b.within(ctx, center, radiusArcsec, b.withCoordinates(fields), f.Pre)
	if err != nil {
		return nil, err
	}
	if f.Post == nil {
		return candidates, nil
	}

	var hits []backend.Hit
	for _, h := range candidates {
		if f.Post.Eval(h.Record, h.DistArcsec) {
			hits = append(hits, h)
		}
	}
	return hits, nil
}

// Describe probes a representative row for the column list.
func (b *Backend) Describe(ctx context.Context) (catalog.Descriptor, error) {
	d := catalog.Descriptor{
		Name:        b.name,
		Kind:        catalog.Indexed,
		Description: b.science["description"],
		Reference:   b.science["reference"],
		Contact:     b.science["contact"],
		Columns:     []catalog.Column{},
	}

	res, err := b.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: b.layout.Index(b.name),
		Vector:    sky.ToVector(sky.Position{}),
		K:         1,
	})
	if err != nil {
		return catalog.Descriptor{}, mapErr(b.name, fmt.Errorf("probe row: %w", err))
	}
	if len(res.Entries) == 0 {
		return d, nil
	}

	rec := toRecord(res.Entries[0].Fields)
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		d.Columns = append(d.Columns, catalog.Column{Name: n})
	}
	return d, nil
}

func (b *Backend) nearest(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, pre filter.Expression,
) (*backend.Hit, error) {
	res, err := b.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    b.layout.Index(b.name),
		Filters:      pre,
		Vector:       sky.ToVector(center),
		K:            nearestProbe,
		ReturnFields: fields,
	})
	if err != nil {
		return nil, mapErr(b.name, fmt.Errorf("nearest: %w", err))
	}

	var best *backend.Hit
	for _, e := range res.Entries {
		h, ok := b.hit(e, center)
		if !ok || h.DistArcsec >= radiusArcsec {
			continue
		}
		if best == nil || h.DistArcsec < best.DistArcsec {
			best = &h
		}
	}
	return best, nil
}

// within returns every candidate whose exact separation is below the radius.
func (b *Backend) within(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, pre filter.Expression,
) ([]backend.Hit, error) {
	chord := sky.ChordForArcsec(radiusArcsec)
	res, err := b.store.SearchRange(ctx, &db.RangeQuery{
		IndexName:    b.layout.Index(b.name),
		Filters:      pre,
		Vector:       sky.ToVector(center),
		Radius:       math.Min(2, chord*(1+chordSlack)+chordSlack),
		Limit:        b.rangeLimit,
		ReturnFields: fields,
	})
	if err != nil {
		return nil, mapErr(b.name, fmt.Errorf("range: %w", err))
	}

	var hits []backend.Hit
	for _, e := range res.Entries {
		if h, ok := b.hit(e, center); ok && h.DistArcsec < radiusArcsec {
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func (b *Backend) hit(e db.SearchEntry, center sky.Position) (backend.Hit, bool) {
	rec := toRecord(e.Fields)
	ra, okRA := asFloat(rec[b.raKey])
	dec, okDec := asFloat(rec[b.decKey])
	if !okRA || !okDec {
		b.logger.Debug("source without usable coordinates skipped", zap.String("key", e.Key))
		return backend.Hit{}, false
	}
	return backend.Hit{
		Record:     rec,
		DistArcsec: sky.Separation(center, sky.Position{RA: ra, Dec: dec}),
	}, true
}

// withCoordinates extends a pushdown projection with the coordinate fields. Nil stays nil.
func (b *Backend) withCoordinates(fields []string) []string {
	if fields == nil {
		return nil
	}
	out := append([]string(nil), fields...)
	for _, k := range b.CoordinateKeys() {
		found := false
		for _, f := range fields {
			if f == k {
				found = true
				break
			}
		}
		if !found {
			out = append(out, k)
		}
	}
	return out
}

func mapErr(name string, err error) error {
	switch {
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrBackendUnavailable, err)
	case errors.Is(err, db.ErrRangeTruncated):
		return fmt.Errorf("%w: catalog %q: %w", domain.ErrRangeTruncated, name, err)
	case errors.Is(err, db.ErrIndexNotFound):
		return domain.NewUnknownCatalog(string(catalog.Indexed), name, domain.MalformedMetadataf("%v", err))
	default:
		return err
	}
}
