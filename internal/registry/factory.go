package registry

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/backend/indexed"
	"github.com/kailas-cloud/conesearch/internal/backend/partitioned"
)

// Factory constructs backends of one kind and discovers their names.
type Factory interface {
	Open(ctx context.Context, name string) (backend.Backend, error)
	Names(ctx context.Context) ([]string, error)
}

// IndexedFactory opens catalogs held in a Valkey or Redis keyspace.
type IndexedFactory struct {
	Store      indexed.Store
	Layout     indexed.Layout
	RangeLimit int
	Logger     *zap.Logger
}

// Open implements Factory.
func (f *IndexedFactory) Open(ctx context.Context, name string) (backend.Backend, error) {
	b, err := indexed.Open(ctx, f.Store, f.Layout, name, indexed.Options{RangeLimit: f.RangeLimit, Logger: f.Logger})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Names implements Factory.
func (f *IndexedFactory) Names(ctx context.Context) ([]string, error) {
	return indexed.Names(ctx, f.Store, f.Layout)
}

// PartitionedFactory opens catalogs under a local partition root.
type PartitionedFactory struct {
	Root    string
	Readers int
	Logger  *zap.Logger
}

// Open implements Factory.
func (f *PartitionedFactory) Open(ctx context.Context, name string) (backend.Backend, error) {
	b, err := partitioned.Open(ctx, f.Root, name, partitioned.Options{Readers: f.Readers, Logger: f.Logger})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Names implements Factory.
func (f *PartitionedFactory) Names(ctx context.Context) ([]string, error) {
	return partitioned.Names(ctx, f.Root)
}
