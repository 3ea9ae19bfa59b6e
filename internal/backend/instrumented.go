package backend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/domain"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
	"github.com/kailas-cloud/conesearch/internal/metrics"
)

// Instrumented wraps a Backend with call metrics and failure logging.
type Instrumented struct {
	Backend
	logger *zap.Logger
}

// NewInstrumented decorates inner.
func NewInstrumented(inner Backend, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{Backend: inner, logger: logger}
}

// Unwrap returns the decorated backend.
func (b *Instrumented) Unwrap() Backend { return b.Backend }

// Exists records and delegates.
func (b *Instrumented) Exists(ctx context.Context, center sky.Position, radiusArcsec float64, f Filters) (bool, error) {
	start := time.Now()
	ok, err := b.Backend.Exists(ctx, center, radiusArcsec, f)
	b.observe("exists", start, err)
	return ok, err
}

// Nearest records and delegates.
func (b *Instrumented) Nearest(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f Filters,
) (*Hit, error) {
	start := time.Now()
	hit, err := b.Backend.Nearest(ctx, center, radiusArcsec, fields, f)
	b.observe("nearest", start, err)
	return hit, err
}

// AllWithin records and delegates.
func (b *Instrumented) AllWithin(
	ctx context.Context, center sky.Position, radiusArcsec float64, fields []string, f Filters,
) ([]Hit, error) {
	start := time.Now()
	hits, err := b.Backend.AllWithin(ctx, center, radiusArcsec, fields, f)
	b.observe("all", start, err)
	if err == nil {
		b.logger.Debug("cone fetched",
			zap.String("catalog", b.Name()),
			zap.String("kind", string(b.Kind())),
			zap.Float64("radius_arcsec", radiusArcsec),
			zap.Int("hits", len(hits)),
		)
	}
	return hits, err
}

// Describe records and delegates.
func (b *Instrumented) Describe(ctx context.Context) (catalog.Descriptor, error) {
	start := time.Now()
	d, err := b.Backend.Describe(ctx)
	b.observe("describe", start, err)
	return d, err
}

func (b *Instrumented) observe(op string, start time.Time, err error) {
	kind := string(b.Kind())
	status := callStatus(err)
	metrics.BackendCallDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
	metrics.BackendCallsTotal.WithLabelValues(kind, op, status).Inc()

	if status == "error" || status == "unavailable" || status == "timeout" {
		b.logger.Error("backend call failed",
			zap.String("catalog", b.Name()),
			zap.String("kind", kind),
			zap.String("op", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrRangeTruncated):
		return "rejected"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
