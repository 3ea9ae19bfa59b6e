// Package registry resolves catalog names to live backends and enumerates known catalogs.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/metrics"
)

// listingOrder is the kind order of Catalogs.
var listingOrder = []catalog.Kind{catalog.Indexed, catalog.Partitioned}

type key struct {
	kind catalog.Kind
	name string
}

// Registry memoizes backends by (kind, name). Construction failures are never cached,
// so a catalog that becomes available later resolves on the next call.
type Registry struct {
	factories map[catalog.Kind]Factory
	logger    *zap.Logger

	mu          sync.RWMutex
	backends    map[key]backend.Backend
	descriptors map[key]catalog.Descriptor
}

// New creates a Registry. A kind without a factory resolves nothing and lists nothing.
func New(factories map[catalog.Kind]Factory, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories:   factories,
		logger:      logger,
		backends:    make(map[key]backend.Backend),
		descriptors: make(map[key]catalog.Descriptor),
	}
}

// Resolve returns the backend for name. Unknown and malformed catalogs both fail with
// *domain.UnknownCatalogError; store outages propagate unchanged.
func (r *Registry) Resolve(ctx context.Context, kind catalog.Kind, name string) (backend.Backend, error) {
	if !kind.IsValid() {
		return nil, domain.InvalidParameterf("unknown catalog kind %q", kind)
	}
	k := key{kind: kind, name: name}

	r.mu.RLock()
	b, ok := r.backends[k]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	f, ok := r.factories[kind]
	if !ok {
		metrics.RegistryConstructionsTotal.WithLabelValues(string(kind), "unknown").Inc()
		return nil, domain.NewUnknownCatalog(string(kind), name, nil)
	}

	opened, err := f.Open(ctx, name)
	if err != nil {
		return nil, r.constructionFailed(kind, name, err)
	}
	return r.remember(k, opened), nil
}

// remember memoizes opened under k unless a handle is already there, and returns the kept one.
func (r *Registry) remember(k key, opened backend.Backend) backend.Backend {
	wrapped := backend.NewInstrumented(opened, r.logger)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.backends[k]; ok {
		return existing
	}
	r.backends[k] = wrapped
	metrics.RegistryConstructionsTotal.WithLabelValues(string(k.kind), "ok").Inc()
	return wrapped
}

// forget drops the memoized handle and descriptor of k.
func (r *Registry) forget(k key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, k)
	delete(r.descriptors, k)
}

func (r *Registry) constructionFailed(kind catalog.Kind, name string, err error) error {
	var unknown *domain.UnknownCatalogError
	switch {
	case errors.As(err, &unknown):
		// already typed
	case errors.Is(err, domain.ErrMalformedMetadata):
		err = domain.NewUnknownCatalog(string(kind), name, err)
	default:
		metrics.RegistryConstructionsTotal.WithLabelValues(string(kind), "error").Inc()
		return fmt.Errorf("open %s catalog %q: %w", kind, name, err)
	}
	metrics.RegistryConstructionsTotal.WithLabelValues(string(kind), "unknown").Inc()
	r.logger.Debug("catalog did not resolve",
		zap.String("kind", string(kind)),
		zap.String("catalog", name),
		zap.Error(err),
	)
	return err
}

// Catalogs lists every resolvable catalog: indexed first, then partitioned, each by name.
// Listing is best effort: catalogs that fail to open or describe are left out, and a kind
// whose discovery fails contributes nothing. Only context errors are returned.
func (r *Registry) Catalogs(ctx context.Context) ([]catalog.Descriptor, error) {
	out := []catalog.Descriptor{}
	for _, kind := range listingOrder {
		f, ok := r.factories[kind]
		if !ok {
			continue
		}
		names, err := f.Names(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("catalog discovery failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		for _, name := range names {
			d, err := r.describe(ctx, kind, name)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				r.logger.Debug("catalog dropped from listing",
					zap.String("kind", string(kind)),
					zap.String("catalog", name),
					zap.Error(err),
				)
				continue
			}
			out = append(out, d)
		}
	}
	return out, nil
}

// describe re-opens the catalog so metadata removed since the last listing is noticed,
// then returns the memoized descriptor, probing the backend on first use.
// A catalog that no longer opens as valid is forgotten, so queries reject it too.
func (r *Registry) describe(ctx context.Context, kind catalog.Kind, name string) (catalog.Descriptor, error) {
	k := key{kind: kind, name: name}
	opened, err := r.factories[kind].Open(ctx, name)
	if err != nil {
		err = r.constructionFailed(kind, name, err)
		var unknown *domain.UnknownCatalogError
		if errors.As(err, &unknown) {
			r.forget(k)
		}
		return catalog.Descriptor{}, err
	}

	r.mu.RLock()
	d, ok := r.descriptors[k]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err = r.remember(k, opened).Describe(ctx)
	if err != nil {
		return catalog.Descriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.descriptors[k]; ok {
		return existing, nil
	}
	r.descriptors[k] = d
	return d, nil
}
