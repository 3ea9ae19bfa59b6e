package query

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

func TestNewRequest_Valid(t *testing.T) {
	specs := []Spec{
		PartitionedSpec{Name: "ROSATfsc", RadiusArcsec: 3600},
		IndexedSpec{Name: "milliquas", RadiusArcsec: 0, OutputKeys: []string{}},
	}
	r, err := NewRequest(5, 5, specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Center != (sky.Position{RA: 5, Dec: 5}) || len(r.Catalogs) != 2 {
		t.Fatalf("unexpected request %+v", r)
	}
	if r.Catalogs[0].Kind() != catalog.Partitioned || r.Catalogs[1].Kind() != catalog.Indexed {
		t.Error("kinds not preserved")
	}
	if r.Catalogs[0].Keys() != nil {
		t.Error("absent keys must stay nil")
	}
	if k := r.Catalogs[1].Keys(); k == nil || len(k) != 0 {
		t.Error("empty keys must stay empty and non-nil")
	}
}

func TestNewRequest_EmptyBatch(t *testing.T) {
	if _, err := NewRequest(0, 0, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestNewRequest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec float64
		specs   []Spec
	}{
		{"ra out of range", 360, 0, nil},
		{"dec out of range", 0, -90.5, nil},
		{"nan ra", math.NaN(), 0, nil},
		{"negative radius", 0, 0, []Spec{PartitionedSpec{Name: "a", RadiusArcsec: -1}}},
		{"inf radius", 0, 0, []Spec{IndexedSpec{Name: "a", RadiusArcsec: math.Inf(1)}}},
		{"missing name", 0, 0, []Spec{IndexedSpec{RadiusArcsec: 1}}},
		{"nil spec", 0, 0, []Spec{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.ra, tt.dec, tt.specs)
			if !errors.Is(err, domain.ErrInvalidParameter) {
				t.Fatalf("want ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestIndexedSpec_HasFilters(t *testing.T) {
	if (IndexedSpec{}).HasFilters() {
		t.Error("zero spec has no filters")
	}
	m, _ := filter.NewMatch("type", "Q")
	pre, _ := filter.NewExpression([]filter.Condition{m}, nil, nil)
	if !(IndexedSpec{Pre: pre}).HasFilters() {
		t.Error("pre filter not reported")
	}
	post, _ := predicate.Compile("z > 1")
	if !(IndexedSpec{Post: post}).HasFilters() {
		t.Error("post filter not reported")
	}
}
