// Package catalogs builds the catalog listing.
package catalogs

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
)

// Service lists catalog descriptors.
type Service struct {
	lister Lister
}

// New creates a listing service.
func New(l Lister) *Service {
	return &Service{lister: l}
}

// List returns every known catalog, optionally restricted to one kind. An empty kind lists all.
func (s *Service) List(ctx context.Context, kind catalog.Kind) ([]catalog.Descriptor, error) {
	all, err := s.lister.Catalogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	if kind == "" {
		return all, nil
	}
	out := make([]catalog.Descriptor, 0, len(all))
	for _, d := range all {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out, nil
}
