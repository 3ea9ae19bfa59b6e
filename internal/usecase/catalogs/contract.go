package catalogs

import (
	"context"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
)

// Lister enumerates resolvable catalogs.
type Lister interface {
	Catalogs(ctx context.Context) ([]catalog.Descriptor, error)
}
