package conesearch

import (
	"context"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
)

// Resolver resolves catalog names to backends.
type Resolver interface {
	Resolve(ctx context.Context, kind catalog.Kind, name string) (backend.Backend, error)
}
