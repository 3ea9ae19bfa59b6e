// Package filter holds the structured pre-filter applied by an indexed catalog
// before its spatial probe: must / should / must_not groups of tag and numeric conditions.
package filter

import (
	"sort"

	"github.com/kailas-cloud/conesearch/internal/domain"
)

// MaxConditionsPerGroup caps each boolean group.
const MaxConditionsPerGroup = 32

// Expression is a conjunction of must, a disjunction of should and a negated must_not.
// The zero value matches everything.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates group sizes.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	for _, g := range []struct {
		name  string
		conds []Condition
	}{{"must", must}, {"should", should}, {"must_not", mustNot}} {
		if len(g.conds) > MaxConditionsPerGroup {
			return Expression{}, domain.InvalidParameterf("too many %s conditions (max %d)", g.name, MaxConditionsPerGroup)
		}
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// Keys returns the distinct field names referenced by the expression, sorted.
func (e Expression) Keys() []string {
	seen := make(map[string]struct{})
	for _, group := range [][]Condition{e.must, e.should, e.mustNot} {
		for _, c := range group {
			seen[c.key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Condition is either a tag match against one or more values or a numeric range.
type Condition struct {
	key    string
	values []string
	bounds *Range
}

// NewMatch creates a tag condition satisfied when the field equals any of values.
func NewMatch(key string, values ...string) (Condition, error) {
	if key == "" {
		return Condition{}, domain.InvalidParameterf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, domain.InvalidParameterf("match value is required for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, domain.InvalidParameterf("empty match value for key %q", key)
		}
	}
	return Condition{key: key, values: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, domain.InvalidParameterf("filter key is required")
	}
	return Condition{key: key, bounds: &r}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Values returns the accepted tag values.
func (c Condition) Values() []string { return c.values }

// Range returns the numeric bounds, nil for tag conditions.
func (c Condition) Range() *Range { return c.bounds }

// IsMatch reports whether this is a tag condition.
func (c Condition) IsMatch() bool { return len(c.values) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.bounds != nil }

// Range is a numeric interval. Each side is open, closed or unbounded.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter requires at least one bound. gt/gte and lt/lte are mutually exclusive,
// and a lower bound above the upper bound is rejected.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, domain.InvalidParameterf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, domain.InvalidParameterf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, domain.InvalidParameterf("cannot specify both lt and lte")
	}
	r := Range{gt: gt, gte: gte, lt: lt, lte: lte}
	lo, hi := r.lower(), r.upper()
	if lo != nil && hi != nil && *lo > *hi {
		return Range{}, domain.InvalidParameterf("empty range: lower bound %v above upper bound %v", *lo, *hi)
	}
	return r, nil
}

func (r Range) lower() *float64 {
	if r.gt != nil {
		return r.gt
	}
	return r.gte
}

func (r Range) upper() *float64 {
	if r.lt != nil {
		return r.lt
	}
	return r.lte
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }
