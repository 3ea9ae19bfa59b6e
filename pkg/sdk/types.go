package conesearch

import (
	"fmt"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/search/predicate"
)

// Kind is the storage technology behind a catalog.
type Kind string

// Catalog kinds.
const (
	Indexed     Kind = "indexed"
	Partitioned Kind = "partitioned"
)

// Request is one cone-search batch: a sky position in J2000 degrees and a spec per catalog.
type Request struct {
	RA       float64
	Dec      float64
	Catalogs []Spec
}

// Spec selects one catalog. Keys nil returns every public field, an empty
// non-nil slice returns none. Filters apply to indexed catalogs only.
type Spec struct {
	Kind         Kind
	Name         string
	RadiusArcsec float64
	Keys         []string
	PreFilter    *Filter
	// PostFilter is an expression over record fields and dist_arcsec, e.g. "z > 0.5".
	PostFilter string
}

// Filter narrows an indexed search inside the store.
type Filter struct {
	Must    []Condition
	Should  []Condition
	MustNot []Condition
}

// Condition carries exactly one of Match, Any or Range.
type Condition struct {
	Key   string
	Match string
	Any   []string
	Range *Range
}

// Range bounds a numeric field.
type Range struct {
	GT, GTE, LT, LTE *float64
}

// Match is one matched record.
type Match struct {
	Body       map[string]any
	DistArcsec float64
}

// CatalogInfo describes a catalog.
type CatalogInfo struct {
	Name        string
	Kind        Kind
	Description string
	Reference   string
	Contact     string
	Columns     []Column
}

// Column is one catalog column. Unit is empty when the catalog declares none.
type Column struct {
	Name string
	Unit string
}

func (r Request) toDomain() (query.Request, error) {
	specs := make([]query.Spec, len(r.Catalogs))
	for i, s := range r.Catalogs {
		spec, err := s.toDomain()
		if err != nil {
			return query.Request{}, fmt.Errorf("catalogs[%d]: %w", i, err)
		}
		specs[i] = spec
	}
	return query.NewRequest(r.RA, r.Dec, specs)
}

func (s Spec) toDomain() (query.Spec, error) {
	kind, err := catalog.ParseKind(string(s.Kind))
	if err != nil {
		return nil, domain.InvalidParameterf("catalog %q: %v", s.Name, err)
	}
	if kind == catalog.Partitioned {
		if s.PreFilter != nil || s.PostFilter != "" {
			return nil, domain.InvalidParameterf("partitioned catalog %q does not support filters", s.Name)
		}
		return query.PartitionedSpec{Name: s.Name, RadiusArcsec: s.RadiusArcsec, OutputKeys: s.Keys}, nil
	}

	pre, err := s.PreFilter.document().Build()
	if err != nil {
		return nil, err
	}
	post, err := predicate.Compile(s.PostFilter)
	if err != nil {
		return nil, err
	}
	return query.IndexedSpec{
		Name:         s.Name,
		RadiusArcsec: s.RadiusArcsec,
		OutputKeys:   s.Keys,
		Pre:          pre,
		Post:         post,
	}, nil
}

func (f *Filter) document() *filter.Document {
	if f == nil {
		return nil
	}
	return &filter.Document{
		Must:    conditionDocuments(f.Must),
		Should:  conditionDocuments(f.Should),
		MustNot: conditionDocuments(f.MustNot),
	}
}

func conditionDocuments(cs []Condition) []filter.ConditionDocument {
	if len(cs) == 0 {
		return nil
	}
	out := make([]filter.ConditionDocument, len(cs))
	for i, c := range cs {
		out[i] = filter.ConditionDocument{Key: c.Key, Match: c.Match, Any: c.Any}
		if c.Range != nil {
			out[i].Range = &filter.RangeDocument{GT: c.Range.GT, GTE: c.Range.GTE, LT: c.Range.LT, LTE: c.Range.LTE}
		}
	}
	return out
}

func matchFromDomain(r match.Result) Match {
	return Match{Body: r.Body, DistArcsec: r.DistArcsec}
}

func catalogFromDomain(d catalog.Descriptor) CatalogInfo {
	cols := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = Column{Name: c.Name, Unit: c.Unit}
	}
	return CatalogInfo{
		Name:        d.Name,
		Kind:        Kind(d.Kind),
		Description: d.Description,
		Reference:   d.Reference,
		Contact:     d.Contact,
		Columns:     cols,
	}
}
