package chi

import (
	"context"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	healthuc "github.com/kailas-cloud/conesearch/internal/usecase/health"
)

// ConeSearcher runs the three cone-search operations over a batch.
type ConeSearcher interface {
	Any(ctx context.Context, req query.Request) ([]bool, error)
	Nearest(ctx context.Context, req query.Request) ([]*match.Result, error)
	All(ctx context.Context, req query.Request) ([][]match.Result, error)
}

// CatalogLister lists catalog descriptors. An empty kind lists every kind.
type CatalogLister interface {
	List(ctx context.Context, kind catalog.Kind) ([]catalog.Descriptor, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
