package catalogs

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
)

type mockLister struct {
	descs []catalog.Descriptor
	err   error
}

func (m *mockLister) Catalogs(context.Context) ([]catalog.Descriptor, error) { return m.descs, m.err }

func TestList(t *testing.T) {
	l := &mockLister{descs: []catalog.Descriptor{
		{Name: "milliquas", Kind: catalog.Indexed},
		{Name: "ROSATfsc", Kind: catalog.Partitioned},
		{Name: "gaia", Kind: catalog.Partitioned},
	}}
	svc := New(l)

	tests := []struct {
		kind catalog.Kind
		want int
	}{
		{"", 3},
		{catalog.Indexed, 1},
		{catalog.Partitioned, 2},
	}
	for _, tt := range tests {
		got, err := svc.List(context.Background(), tt.kind)
		if err != nil {
			t.Fatalf("List(%q): %v", tt.kind, err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%q) = %d descriptors, want %d", tt.kind, len(got), tt.want)
		}
	}
}

func TestList_Error(t *testing.T) {
	svc := New(&mockLister{err: context.Canceled})
	if _, err := svc.List(context.Background(), ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
