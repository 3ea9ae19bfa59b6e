package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/conesearch/internal/backend"
	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/sky"
)

// fakeBackend is a catalog answering nothing.
type fakeBackend struct {
	kind        catalog.Kind
	name        string
	describeErr error
	describes   *atomic.Int32
}

func (f *fakeBackend) Kind() catalog.Kind       { return f.kind }
func (f *fakeBackend) Name() string             { return f.name }
func (f *fakeBackend) InternalKeys() []string   { return nil }
func (f *fakeBackend) CoordinateKeys() []string { return []string{"ra", "dec"} }

func (f *fakeBackend) Exists(context.Context, sky.Position, float64, backend.Filters) (bool, error) {
	return false, nil
}

func (f *fakeBackend) Nearest(context.Context, sky.Position, float64, []string, backend.Filters) (*backend.Hit, error) {
	return nil, nil
}

func (f *fakeBackend) AllWithin(context.Context, sky.Position, float64, []string, backend.Filters) ([]backend.Hit, error) {
	return nil, nil
}

func (f *fakeBackend) Describe(context.Context) (catalog.Descriptor, error) {
	if f.describes != nil {
		f.describes.Add(1)
	}
	if f.describeErr != nil {
		return catalog.Descriptor{}, f.describeErr
	}
	return catalog.Descriptor{Name: f.name, Kind: f.kind}, nil
}

// fakeFactory opens names from a table; openErr overrides per name.
type fakeFactory struct {
	kind     catalog.Kind
	names    []string
	namesErr error

	mu          sync.Mutex
	openErr     map[string]error
	describeErr map[string]error
	opens       atomic.Int32
	describes   atomic.Int32
}

func (f *fakeFactory) Open(_ context.Context, name string) (backend.Backend, error) {
	f.opens.Add(1)
	f.mu.Lock()
	err := f.openErr[name]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &fakeBackend{kind: f.kind, name: name, describeErr: f.describeErr[name], describes: &f.describes}, nil
}

func (f *fakeFactory) Names(context.Context) ([]string, error) {
	return f.names, f.namesErr
}

func (f *fakeFactory) setOpenErr(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr == nil {
		f.openErr = map[string]error{}
	}
	f.openErr[name] = err
}
