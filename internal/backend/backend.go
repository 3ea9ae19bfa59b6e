// Package backend defines the capability set every catalog storage technology exposes
// to the cone-search engine.
package backend

import (
	"context"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// Hit is one record within the cone with its exact separation from the center.
type Hit struct {
	Record     map[string]any
	DistArcsec float64
}

// Filters narrows an indexed search. Pre restricts the index scan, Post restricts matched candidates.
// The zero value filters nothing.
type Filters struct {
	Pre  filter.Expression
	Post *predicate.Predicate
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool { return f.Pre.IsEmpty() && f.Post == nil }

// Backend answers cone queries over one catalog. Implementations are safe for concurrent use
// and never mutate catalog data.
//
// Every separation reported is strictly less than the queried radius. fields is the pushdown
// projection (nil fetches every field); backends without pushdown ignore it.
type Backend interface {
	Kind() catalog.Kind
	Name() string
	// InternalKeys lists storage fields never shown to callers.
	InternalKeys() []string
	// CoordinateKeys lists the record fields holding ra and dec.
	CoordinateKeys() []string

	Exists(ctx context.Context, center sky.Position, radiusArcsec float64, f Filters) (bool, error)
	// Nearest returns nil when nothing lies within the radius.
	Nearest(ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f Filters) (*Hit, error)
	// AllWithin returns nil when nothing lies within the radius. Order is backend-defined.
	AllWithin(ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f Filters) ([]Hit, error)
	Describe(ctx context.Context) (catalog.Descriptor, error)
}
