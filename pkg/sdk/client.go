package conesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/backend/indexed"
	"github.com/kailas-cloud/conesearch/internal/db"
	dbRedis "github.com/kailas-cloud/conesearch/internal/db/redis"
	dbValkey "github.com/kailas-cloud/conesearch/internal/db/valkey"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	"github.com/kailas-cloud/conesearch/internal/registry"
	catalogsuc "github.com/kailas-cloud/conesearch/internal/usecase/catalogs"
	conesearchuc "github.com/kailas-cloud/conesearch/internal/usecase/conesearch"
	healthuc "github.com/kailas-cloud/conesearch/internal/usecase/health"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "catalogs:"
)

// Internal interfaces, replaced in tests.
type coneUseCase interface {
	Any(ctx context.Context, req query.Request) ([]bool, error)
	Nearest(ctx context.Context, req query.Request) ([]*match.Result, error)
	All(ctx context.Context, req query.Request) ([][]match.Result, error)
}

type catalogsUseCase interface {
	List(ctx context.Context, kind catalog.Kind) ([]catalog.Descriptor, error)
}

// Client is the cone-search SDK entry point.
type Client struct {
	store      db.Store
	coneSvc    coneUseCase
	catalogSvc catalogsUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a Client. At least one of WithValkey, WithRedis or WithCatalogRoot is required.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 && cfg.root == "" {
		return nil, errors.New("conesearch: no catalog source (use WithValkey, WithRedis or WithCatalogRoot)")
	}

	var store db.Store
	if len(cfg.addrs) > 0 {
		var err error
		if store, err = createStore(cfg); err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("conesearch: database not ready: %w", err)
		}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	conn := dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	}
	switch cfg.driver {
	case "valkey":
		s, err := dbValkey.NewStore(conn)
		if err != nil {
			return nil, fmt.Errorf("conesearch: create valkey store: %w", err)
		}
		return s, nil
	case "redis":
		s, err := dbRedis.NewStore(conn)
		if err != nil {
			return nil, fmt.Errorf("conesearch: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("conesearch: unknown driver %q", cfg.driver)
	}
}

// wireClient builds the registry over whichever sources are configured.
// store may be nil, leaving the indexed kind without catalogs.
func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	factories := map[catalog.Kind]registry.Factory{}
	var pinger healthuc.DBPinger
	if store != nil {
		factories[catalog.Indexed] = &registry.IndexedFactory{
			Store:      store,
			Layout:     indexed.Layout{Prefix: cfg.keyPrefix},
			RangeLimit: cfg.rangeLimit,
		}
		pinger = store
	}
	var root healthuc.RootChecker
	if cfg.root != "" {
		factories[catalog.Partitioned] = &registry.PartitionedFactory{Root: cfg.root}
		root = healthuc.DirChecker(cfg.root)
	}

	reg := registry.New(factories, zap.NewNop())
	return &Client{
		store: store,
		coneSvc: conesearchuc.New(reg, conesearchuc.Options{
			Workers:        cfg.workers,
			BackendTimeout: cfg.backendTimeout,
		}),
		catalogSvc: catalogsuc.New(reg),
		healthSvc:  healthuc.New(pinger, root),
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Any reports per spec whether any record lies within its cone.
func (c *Client) Any(ctx context.Context, req Request) (out []bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("any", len(req.Catalogs), start, err) }()

	q, err := req.toDomain()
	if err != nil {
		return nil, err
	}
	if out, err = c.coneSvc.Any(ctx, q); err != nil {
		return nil, fmt.Errorf("any: %w", err)
	}
	return out, nil
}

// Nearest returns per spec the closest match within its cone, or nil.
func (c *Client) Nearest(ctx context.Context, req Request) (out []*Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("nearest", len(req.Catalogs), start, err) }()

	q, err := req.toDomain()
	if err != nil {
		return nil, err
	}
	res, err := c.coneSvc.Nearest(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("nearest: %w", err)
	}
	out = make([]*Match, len(res))
	for i, r := range res {
		if r != nil {
			m := matchFromDomain(*r)
			out[i] = &m
		}
	}
	return out, nil
}

// All returns per spec every match within its cone, or nil when nothing matched.
func (c *Client) All(ctx context.Context, req Request) (out [][]Match, err error) {
	start := time.Now()
	defer func() { c.obs.observe("all", len(req.Catalogs), start, err) }()

	q, err := req.toDomain()
	if err != nil {
		return nil, err
	}
	res, err := c.coneSvc.All(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("all: %w", err)
	}
	out = make([][]Match, len(res))
	for i, hits := range res {
		if hits == nil {
			continue
		}
		out[i] = make([]Match, len(hits))
		for j, h := range hits {
			out[i][j] = matchFromDomain(h)
		}
	}
	return out, nil
}

// Catalogs lists every usable catalog. Pass "" for all kinds.
func (c *Client) Catalogs(ctx context.Context, kind Kind) (out []CatalogInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("catalogs", len(out), start, err) }()

	var k catalog.Kind
	if kind != "" {
		if k, err = catalog.ParseKind(string(kind)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
	}
	ds, err := c.catalogSvc.List(ctx, k)
	if err != nil {
		return nil, err
	}
	out = make([]CatalogInfo, len(ds))
	for i, d := range ds {
		out[i] = catalogFromDomain(d)
	}
	return out, nil
}
