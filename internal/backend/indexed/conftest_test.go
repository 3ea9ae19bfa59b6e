package indexed

import (
	"context"
	"math"
	"sort"
	"strconv"
	"testing"

	"github.com/kailas-cloud/conesearch/internal/db"
	"github.com/kailas-cloud/conesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

var testLayout = Layout{Prefix: "catalogs:"}

// mockStore is a small in-memory catalog answering searches by brute force.
type mockStore struct {
	hashes  map[string]map[string]string
	indexes map[string]bool
	sources []map[string]string

	knnQueries   []*db.KNNQuery
	rangeQueries []*db.RangeQuery

	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchRangeFn func(ctx context.Context, q *db.RangeQuery) (*db.SearchResult, error)
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	if h, ok := m.hashes[key]; ok {
		return h, nil
	}
	return map[string]string{}, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	keys := make([]string, 0, len(m.hashes))
	for k := range m.hashes {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return m.indexes[name], nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnQueries = append(m.knnQueries, q)
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	entries := m.ranked(q.Vector, q.ReturnFields)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func (m *mockStore) SearchRange(ctx context.Context, q *db.RangeQuery) (*db.SearchResult, error) {
	m.rangeQueries = append(m.rangeQueries, q)
	if m.searchRangeFn != nil {
		return m.searchRangeFn(ctx, q)
	}
	var entries []db.SearchEntry
	for _, e := range m.ranked(q.Vector, q.ReturnFields) {
		if e.Score <= q.Radius {
			entries = append(entries, e)
		}
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// ranked returns every source ordered by chord distance to v.
func (m *mockStore) ranked(v []float32, fields []string) []db.SearchEntry {
	entries := make([]db.SearchEntry, 0, len(m.sources))
	for i, src := range m.sources {
		ra, _ := strconv.ParseFloat(src["ra"], 64)
		dec, _ := strconv.ParseFloat(src["dec"], 64)
		p := sky.ToVector(sky.Position{RA: ra, Dec: dec})
		var d2 float64
		for j := range p {
			diff := float64(p[j]) - float64(v[j])
			d2 += diff * diff
		}
		entries = append(entries, db.SearchEntry{
			Key:    testLayout.SourcePrefix("milliquas") + strconv.Itoa(i),
			Score:  math.Sqrt(d2),
			Fields: project(src, fields),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score < entries[j].Score })
	return entries
}

func project(src map[string]string, fields []string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	out[VectorKey] = "\x00\x00\x80?"
	if fields == nil {
		return out
	}
	kept := make(map[string]string, len(fields))
	for _, f := range fields {
		if v, ok := out[f]; ok {
			kept[f] = v
		}
	}
	return kept
}

// newMilliquas seeds a valid catalog with a source at the south celestial cap.
func newMilliquas() *mockStore {
	return &mockStore{
		hashes: map[string]map[string]string{
			testLayout.MetaKeys("milliquas"): {"ra": "ra", "dec": "dec"},
			testLayout.MetaScience("milliquas"): {
				"description": "Million Quasars catalog",
				"reference":   "Flesch 2023",
			},
		},
		indexes: map[string]bool{testLayout.Index("milliquas"): true},
		sources: []map[string]string{
			{"ra": "265", "dec": "-89.58", "name": "J1740-8935", "type": "Q", "z": "1.2"},
			{"ra": "265.5", "dec": "-89.585", "name": "J1742-8935", "type": "A", "z": "0.4"},
			{"ra": "10", "dec": "20", "name": "J0040+2000", "type": "Q", "z": "nan"},
		},
	}
}

func openTest(t *testing.T, s *mockStore) *Backend {
	t.Helper()
	b, err := Open(context.Background(), s, testLayout, "milliquas", Options{RangeLimit: 1000})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return b
}

func mustExpression(t *testing.T, key, value string) filter.Expression {
	t.Helper()
	c, err := filter.NewMatch(key, value)
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	e, err := filter.NewExpression([]filter.Condition{c}, nil, nil)
	if err != nil {
		t.Fatalf("NewExpression: %v", err)
	}
	return e
}
