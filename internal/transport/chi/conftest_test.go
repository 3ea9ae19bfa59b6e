package chi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kailas-cloud/conesearch/internal/domain/catalog"
	"github.com/kailas-cloud/conesearch/internal/domain/match"
	"github.com/kailas-cloud/conesearch/internal/domain/query"
	healthuc "github.com/kailas-cloud/conesearch/internal/usecase/health"
)

// fakeCone records the last request and answers through the optional funcs.
type fakeCone struct {
	mu        sync.Mutex
	calls     int
	last      query.Request
	anyFn     func(query.Request) ([]bool, error)
	nearestFn func(query.Request) ([]*match.Result, error)
	allFn     func(query.Request) ([][]match.Result, error)
}

func (f *fakeCone) record(req query.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
}

func (f *fakeCone) Any(_ context.Context, req query.Request) ([]bool, error) {
	f.record(req)
	if f.anyFn != nil {
		return f.anyFn(req)
	}
	return make([]bool, len(req.Catalogs)), nil
}

func (f *fakeCone) Nearest(_ context.Context, req query.Request) ([]*match.Result, error) {
	f.record(req)
	if f.nearestFn != nil {
		return f.nearestFn(req)
	}
	return make([]*match.Result, len(req.Catalogs)), nil
}

func (f *fakeCone) All(_ context.Context, req query.Request) ([][]match.Result, error) {
	f.record(req)
	if f.allFn != nil {
		return f.allFn(req)
	}
	return make([][]match.Result, len(req.Catalogs)), nil
}

type fakeLister struct {
	descriptors []catalog.Descriptor
	err         error
	lastKind    catalog.Kind
}

func (f *fakeLister) List(_ context.Context, kind catalog.Kind) ([]catalog.Descriptor, error) {
	f.lastKind = kind
	if f.err != nil {
		return nil, f.err
	}
	return f.descriptors, nil
}

type fakeHealth struct {
	report healthuc.Report
}

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testServer struct {
	cone    *fakeCone
	lister  *fakeLister
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{cone: &fakeCone{}, lister: &fakeLister{}}
	healthy := fakeHealth{report: healthuc.Report{
		Status: healthuc.Healthy,
		Checks: map[string]healthuc.CheckResult{healthuc.IndexedStore: healthuc.CheckOK},
	}}
	ts.handler = NewServer(ts.cone, ts.lister, healthy, nil).Routes()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}
