package db

import (
	"math"

	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
)

// VectorField is the index alias of the stored position vector.
const VectorField = "vector"

// ScoreField is the pseudo-field carrying the KNN distance in FT.SEARCH replies.
const ScoreField = "__vector_score"

// KNNQuery is the input for a nearest-neighbour search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// RangeQuery is the input for a radius-bounded vector search.
type RangeQuery struct {
	IndexName string
	Filters   filter.Expression
	Vector    []float32
	// Radius is the Euclidean (chord) distance bound.
	Radius       float64
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key string
	// Score is the engine-reported L2 distance, plain or squared depending on the engine.
	Score  float64
	Fields map[string]string
}

// ChordLowerBound returns the smallest chord length consistent with score
// under either the plain or the squared L2 convention.
func ChordLowerBound(score float64) float64 {
	if score < 0 {
		return 0
	}
	return math.Min(score, math.Sqrt(score))
}

// RadiusUpperBound returns the engine radius that admits every vector within chord
// under either L2 convention.
func RadiusUpperBound(chord float64) float64 {
	return math.Max(chord, chord*chord)
}
