// Package partitioned serves catalogs materialized as parquet partitions on local disk.
// Each partition file holds the rows of one S2 cell at the catalog level and is named
// after the cell token, so a cone reads only the cells its cap touches.
package partitioned

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/geo/s2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// Compile-time check: Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// PartitionExt is the file extension of partition files.
const PartitionExt = ".parquet"

// DefaultReaders bounds concurrent partition reads of one query.
const DefaultReaders = 4

// Options tunes a partitioned backend.
type Options struct {
	Readers int
	Logger  *zap.Logger
}

// Backend is a cone-search backend over one partitioned catalog.
// Partitions are listed once at Open; the handle is immutable afterwards.
type Backend struct {
	dir        string
	schema     *Schema
	level      int
	partitions map[s2.CellID]string
	readers    int
	logger     *zap.Logger
}

// Open resolves root/name. A missing directory is an unknown catalog; a bad schema is malformed.
func Open(ctx context.Context, root, name string, opts Options) (*Backend, error) {
	if opts.Readers <= 0 {
		opts.Readers = DefaultReaders
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if root == "" || !validName(name) {
		return nil, domain.NewUnknownCatalog(string(catalog.Partitioned), name, nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(root, name)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewUnknownCatalog(string(catalog.Partitioned), name, nil)
		}
		return nil, fmt.Errorf("%w: stat catalog dir: %w", domain.ErrBackendUnavailable, err)
	}
	if !info.IsDir() {
		return nil, domain.NewUnknownCatalog(string(catalog.Partitioned), name, nil)
	}

	schema, err := loadSchema(dir, name)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger.With(zap.String("catalog", name), zap.String("kind", string(catalog.Partitioned)))
	partitions, err := listPartitions(dir, schema.PartitionLevel(), logger)
	if err != nil {
		return nil, err
	}

	return &Backend{
		dir:        dir,
		schema:     schema,
		level:      schema.PartitionLevel(),
		partitions: partitions,
		readers:    opts.Readers,
		logger:     logger,
	}, nil
}

// Names lists catalog directories under root, sorted. Validity is checked by Open.
// An empty or missing root holds no catalogs.
func Names(_ context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read catalog root: %w", domain.ErrBackendUnavailable, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && validName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}

// listPartitions maps cell ids to files. Files not named after a cell at level are ignored.
func listPartitions(dir string, level int, logger *zap.Logger) (map[s2.CellID]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list partitions: %w", domain.ErrBackendUnavailable, err)
	}
	out := make(map[s2.CellID]string, len(entries))
	for _, e := range entries {
		token, ok := strings.CutSuffix(e.Name(), PartitionExt)
		if e.IsDir() || !ok {
			continue
		}
		id := s2.CellIDFromToken(token)
		if !id.IsValid() || id.Level() != level {
			logger.Debug("ignoring file outside the partition scheme", zap.String("file", e.Name()))
			continue
		}
		out[id] = filepath.Join(dir, e.Name())
	}
	return out, nil
}

// Kind implements backend.Backend.
func (b *Backend) Kind() catalog.Kind { return catalog.Partitioned }

// Name implements backend.Backend.
func (b *Backend) Name() string { return b.schema.Name }

// InternalKeys implements backend.Backend. Partition files carry no index fields.
func (b *Backend) InternalKeys() []string { return nil }

// CoordinateKeys implements backend.Backend.
func (b *Backend) CoordinateKeys() []string { return []string{b.schema.RAColumn, b.schema.DecColumn} }

// Describe returns the declared schema.
func (b *Backend) Describe(context.Context) (catalog.Descriptor, error) {
	return b.schema.Descriptor(), nil
}

// Exists stops at the first row inside the cone. Filters are not supported and ignored.
func (b *Backend) Exists(ctx context.Context, center sky.Position, radiusArcsec float64, _ backend.Filters) (bool, error) {
	if radiusArcsec <= 0 {
		return false, nil
	}
	for _, id := range b.cells(center, radiusArcsec) {
		found := false
		err := b.scan(ctx, id, center, radiusArcsec, func(backend.Hit) bool {
			found = true
			return false
		})
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// Nearest returns the closest row inside the cone, or nil.
func (b *Backend) Nearest(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f backend.Filters,
) (*backend.Hit, error) {
	hits, err := b.AllWithin(ctx, center, radiusArcsec, fields, f)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	best := 0
	for i := range hits {
		if hits[i].DistArcsec < hits[best].DistArcsec {
			best = i
		}
	}
	return &hits[best], nil
}

// AllWithin returns every row inside the cone in cell order, then file order.
// Full rows are read; fields is ignored.
func (b *Backend) AllWithin(
	ctx context.Context, center sky.Position, radiusArcsec float64, _ []string, _ backend.Filters,
) ([]backend.Hit, error) {
	if radiusArcsec <= 0 {
		return nil, nil
	}
	cells := b.cells(center, radiusArcsec)
	perCell := make([][]backend.Hit, len(cells))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.readers)
	for i, id := range cells {
		g.Go(func() error {
			return b.scan(gctx, id, center, radiusArcsec, func(h backend.Hit) bool {
				perCell[i] = append(perCell[i], h)
				return true
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var hits []backend.Hit
	for _, hs := range perCell {
		hits = append(hits, hs...)
	}
	return hits, nil
}

// cells returns the existing partitions intersecting the cone, sorted by cell id.
// Small caps are covered at the partition level; caps spanning more cells than
// there are partitions test each partition instead.
func (b *Backend) cells(center sky.Position, radiusArcsec float64) []s2.CellID {
	capRegion := sky.Cap(center, radiusArcsec)

	var out []s2.CellID
	if capRegion.Area()/s2.AvgAreaMetric.Value(b.level) < float64(len(b.partitions)) {
		rc := &s2.RegionCoverer{MinLevel: b.level, MaxLevel: b.level, MaxCells: 8}
		for _, id := range rc.Covering(capRegion) {
			if _, ok := b.partitions[id]; ok {
				out = append(out, id)
			}
		}
	} else {
		for id := range b.partitions {
			if capRegion.IntersectsCell(s2.CellFromCellID(id)) {
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// scan feeds every row of partition id inside the cone to fn until fn returns false.
func (b *Backend) scan(
	ctx context.Context, id s2.CellID, center sky.Position, radiusArcsec float64, fn func(backend.Hit) bool,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := b.partitions[id]
	skipped := 0
	err := readPartition(ctx, path, func(rec map[string]any) bool {
		pos, ok := b.position(rec)
		if !ok {
			skipped++
			return true
		}
		d := sky.Separation(center, pos)
		if d >= radiusArcsec {
			return true
		}
		if b.schema.Radians() {
			rec[DegreeRA], rec[DegreeDec] = pos.RA, pos.Dec
		}
		return fn(backend.Hit{Record: rec, DistArcsec: d})
	})
	if skipped > 0 {
		b.logger.Debug("rows without usable coordinates skipped",
			zap.String("partition", id.ToToken()), zap.Int("rows", skipped))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: partition %s: %w", domain.ErrBackendUnavailable, id.ToToken(), err)
	}
	return nil
}

func (b *Backend) position(rec map[string]any) (sky.Position, bool) {
	ra, okRA := asFloat(rec[b.schema.RAColumn])
	dec, okDec := asFloat(rec[b.schema.DecColumn])
	if !okRA || !okDec {
		return sky.Position{}, false
	}
	if b.schema.Radians() {
		return sky.FromRadians(ra, dec), true
	}
	return sky.Position{RA: ra, Dec: dec}, true
}

// asFloat accepts finite numbers only.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case int64:
		return float64(x), true
	}
	return 0, false
}
