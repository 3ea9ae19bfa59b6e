package conesearch

import (
	"context"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
)

// --- coneUseCase mock ---

type mockConeUC struct {
	last      query.Request
	anyFn     func(req query.Request) ([]bool, error)
	nearestFn func(req query.Request) ([]*match.Result, error)
	allFn     func(req query.Request) ([][]match.Result, error)
}

func (m *mockConeUC) Any(_ context.Context, req query.Request) ([]bool, error) {
	m.last = req
	return m.anyFn(req)
}

func (m *mockConeUC) Nearest(_ context.Context, req query.Request) ([]*match.Result, error) {
	m.last = req
	return m.nearestFn(req)
}

func (m *mockConeUC) All(_ context.Context, req query.Request) ([][]match.Result, error) {
	m.last = req
	return m.allFn(req)
}

// --- catalogsUseCase mock ---

type mockCatalogsUC struct {
	listFn func(kind catalog.Kind) ([]catalog.Descriptor, error)
}

func (m *mockCatalogsUC) List(_ context.Context, kind catalog.Kind) ([]catalog.Descriptor, error) {
	return m.listFn(kind)
}
