package filter

import (
	"fmt"

	"github.com/kailas-cloud/conesearch/internal/domain"
)

// Document is the JSON form of an Expression as clients send it.
type Document struct {
	Must    []ConditionDocument `json:"must,omitempty"`
	Should  []ConditionDocument `json:"should,omitempty"`
	MustNot []ConditionDocument `json:"must_not,omitempty"`
}

// ConditionDocument carries exactly one of Match, Any or Range.
type ConditionDocument struct {
	Key   string         `json:"key"`
	Match string         `json:"match,omitempty"`
	Any   []string       `json:"any,omitempty"`
	Range *RangeDocument `json:"range,omitempty"`
}

// RangeDocument is the JSON form of a Range.
type RangeDocument struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Build validates the document. A nil document yields the empty expression.
func (d *Document) Build() (Expression, error) {
	if d == nil {
		return Expression{}, nil
	}
	must, err := buildGroup("must", d.Must)
	if err != nil {
		return Expression{}, err
	}
	should, err := buildGroup("should", d.Should)
	if err != nil {
		return Expression{}, err
	}
	mustNot, err := buildGroup("must_not", d.MustNot)
	if err != nil {
		return Expression{}, err
	}
	return NewExpression(must, should, mustNot)
}

func buildGroup(name string, docs []ConditionDocument) ([]Condition, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	out := make([]Condition, 0, len(docs))
	for i, cd := range docs {
		c, err := cd.build()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (cd ConditionDocument) build() (Condition, error) {
	set := 0
	if cd.Match != "" {
		set++
	}
	if len(cd.Any) > 0 {
		set++
	}
	if cd.Range != nil {
		set++
	}
	if set != 1 {
		return Condition{}, domain.InvalidParameterf("condition on %q needs exactly one of match, any, range", cd.Key)
	}
	switch {
	case cd.Match != "":
		return NewMatch(cd.Key, cd.Match)
	case len(cd.Any) > 0:
		return NewMatch(cd.Key, cd.Any...)
	default:
		r, err := NewRangeFilter(cd.Range.GT, cd.Range.GTE, cd.Range.LT, cd.Range.LTE)
		if err != nil {
			return Condition{}, err
		}
		return NewRange(cd.Key, r)
	}
}
