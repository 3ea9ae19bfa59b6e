// Package conesearch dispatches cone-search batches across catalog backends.
package conesearch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/projection"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	"github.com/kailas-cloud/conesearch/internal/domain/sanitize"
)

// DefaultWorkers bounds concurrent backend calls of one batch when Options leave it unset.
const DefaultWorkers = 8

// Options tunes dispatch.
type Options struct {
	Workers int
	// BackendTimeout bounds each backend call. Zero disables the per-call deadline.
	BackendTimeout time.Duration
}

// Service runs any, nearest and all over a batch of catalog specs. A batch either fully
// succeeds or fails: every catalog is resolved before any query runs, and the first
// failing backend call cancels the rest.
type Service struct {
	resolver Resolver
	workers  int
	timeout  time.Duration
}

// New creates a dispatch service.
func New(resolver Resolver, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Service{resolver: resolver, workers: opts.Workers, timeout: opts.BackendTimeout}
}

// plan is one resolved catalog spec.
type plan struct {
	spec    query.Spec
	backend backend.Backend
	proj    projection.Projection
	filters backend.Filters
}

// Any reports per spec whether anything lies within its cone.
func (s *Service) Any(ctx context.Context, req query.Request) ([]bool, error) {
	plans, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(plans))
	err = s.run(ctx, plans, func(ctx context.Context, i int, p plan) error {
		ok, err := p.backend.Exists(ctx, req.Center, p.spec.Radius(), p.filters)
		if err != nil {
			return fmt.Errorf("any %s: %w", p.spec.Catalog(), err)
		}
		out[i] = ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest returns per spec the closest match, or nil.
func (s *Service) Nearest(ctx context.Context, req query.Request) ([]*match.Result, error) {
	plans, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]*match.Result, len(plans))
	err = s.run(ctx, plans, func(ctx context.Context, i int, p plan) error {
		hit, err := p.backend.Nearest(ctx, req.Center, p.spec.Radius(), p.proj.Pushdown, p.filters)
		if err != nil {
			return fmt.Errorf("nearest %s: %w", p.spec.Catalog(), err)
		}
		if hit != nil {
			r := toResult(*hit, p.proj)
			out[i] = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All returns per spec every match in backend order, or nil when nothing matched.
func (s *Service) All(ctx context.Context, req query.Request) ([][]match.Result, error) {
	plans, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([][]match.Result, len(plans))
	err = s.run(ctx, plans, func(ctx context.Context, i int, p plan) error {
		hits, err := p.backend.AllWithin(ctx, req.Center, p.spec.Radius(), p.proj.Pushdown, p.filters)
		if err != nil {
			return fmt.Errorf("all %s: %w", p.spec.Catalog(), err)
		}
		if len(hits) == 0 {
			return nil
		}
		results := make([]match.Result, len(hits))
		for j, h := range hits {
			results[j] = toResult(h, p.proj)
		}
		out[i] = results
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// prepare validates req and resolves every spec in request order before any query I/O.
func (s *Service) prepare(ctx context.Context, req query.Request) ([]plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	plans := make([]plan, len(req.Catalogs))
	for i, spec := range req.Catalogs {
		b, err := s.resolver.Resolve(ctx, spec.Kind(), spec.Catalog())
		if err != nil {
			return nil, fmt.Errorf("catalogs[%d]: %w", i, err)
		}
		p := plan{
			spec:    spec,
			backend: b,
			proj:    projection.Resolve(spec.Keys(), b.InternalKeys(), b.CoordinateKeys()),
		}
		switch sp := spec.(type) {
		case query.IndexedSpec:
			p.filters = backend.Filters{Pre: sp.Pre, Post: sp.Post}
			if sp.Post != nil {
				p.proj = p.proj.WithoutPushdown()
			}
		case query.PartitionedSpec:
			p.proj = p.proj.WithoutPushdown()
		}
		plans[i] = p
	}
	return plans, nil
}

// run fans fn out over plans with at most s.workers calls in flight.
func (s *Service) run(ctx context.Context, plans []plan, fn func(ctx context.Context, i int, p plan) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range plans {
		g.Go(func() error {
			callCtx := gctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(gctx, s.timeout)
				defer cancel()
			}
			return fn(callCtx, i, p)
		})
	}
	return g.Wait()
}

func toResult(h backend.Hit, proj projection.Projection) match.Result {
	return match.Result{Body: sanitize.Map(proj.Apply(h.Record)), DistArcsec: h.DistArcsec}
}
