// Package query describes cone-search requests: a sky position and one spec per catalog.
package query

import (
	"math"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// Spec selects one catalog and the cone radius to search it with.
// The set of implementations is closed: IndexedSpec and PartitionedSpec.
type Spec interface {
	Kind() catalog.Kind
	Catalog() string
	Radius() float64
	// Keys returns the requested output fields. Nil selects every public field.
	Keys() []string
	validate() error
}

// IndexedSpec queries an indexed catalog. Pre narrows the index scan, Post filters matched candidates.
type IndexedSpec struct {
	Name         string
	RadiusArcsec float64
	OutputKeys   []string
	Pre          filter.Expression
	Post         *predicate.Predicate
}

// Kind implements Spec.
func (s IndexedSpec) Kind() catalog.Kind { return catalog.Indexed }

// Catalog implements Spec.
func (s IndexedSpec) Catalog() string { return s.Name }

// Radius implements Spec.
func (s IndexedSpec) Radius() float64 { return s.RadiusArcsec }

// Keys implements Spec.
func (s IndexedSpec) Keys() []string { return s.OutputKeys }

func (s IndexedSpec) validate() error { return validateCone(s.Name, s.RadiusArcsec) }

// HasFilters reports whether either filter is set.
func (s IndexedSpec) HasFilters() bool { return !s.Pre.IsEmpty() || s.Post != nil }

// PartitionedSpec queries a partitioned-file catalog. No filters are supported.
type PartitionedSpec struct {
	Name         string
	RadiusArcsec float64
	OutputKeys   []string
}

// Kind implements Spec.
func (s PartitionedSpec) Kind() catalog.Kind { return catalog.Partitioned }

// Catalog implements Spec.
func (s PartitionedSpec) Catalog() string { return s.Name }

// Radius implements Spec.
func (s PartitionedSpec) Radius() float64 { return s.RadiusArcsec }

// Keys implements Spec.
func (s PartitionedSpec) Keys() []string { return s.OutputKeys }

func (s PartitionedSpec) validate() error { return validateCone(s.Name, s.RadiusArcsec) }

func validateCone(name string, radius float64) error {
	if name == "" {
		return domain.InvalidParameterf("catalog name is required")
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return domain.InvalidParameterf("rs_arcsec must be a finite non-negative number, got %v for %q", radius, name)
	}
	return nil
}

// Request is a validated cone-search batch.
type Request struct {
	Center   sky.Position
	Catalogs []Spec
}

// NewRequest validates the center and every spec.
func NewRequest(raDeg, decDeg float64, specs []Spec) (Request, error) {
	center, err := sky.NewPosition(raDeg, decDeg)
	if err != nil {
		return Request{}, domain.InvalidParameterf("%v", err)
	}
	r := Request{Center: center, Catalogs: specs}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks a request built without NewRequest.
func (r Request) Validate() error {
	if _, err := sky.NewPosition(r.Center.RA, r.Center.Dec); err != nil {
		return domain.InvalidParameterf("%v", err)
	}
	for i, s := range r.Catalogs {
		if s == nil {
			return domain.InvalidParameterf("catalogs[%d] is empty", i)
		}
		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}
