package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockRootChecker struct {
	err error
}

func (m *mockRootChecker) CheckRoot(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockRootChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[IndexedStore] != CheckOK {
		t.Errorf("expected indexed_store %q, got %q", CheckOK, r.Checks[IndexedStore])
	}
	if r.Checks[PartitionedRoot] != CheckOK {
		t.Errorf("expected partitioned_root %q, got %q", CheckOK, r.Checks[PartitionedRoot])
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockRootChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[IndexedStore] != CheckError {
		t.Errorf("expected indexed_store %q, got %q", CheckError, r.Checks[IndexedStore])
	}
}

func TestCheck_RootError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockRootChecker{err: errors.New("permission denied")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[PartitionedRoot] != CheckError {
		t.Errorf("expected partitioned_root %q, got %q", CheckError, r.Checks[PartitionedRoot])
	}
}

func TestCheck_RootDisabled(t *testing.T) {
	svc := New(&mockDBPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[PartitionedRoot] != CheckDisabled {
		t.Errorf("expected partitioned_root %q, got %q", CheckDisabled, r.Checks[PartitionedRoot])
	}
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"directory", dir, false},
		{"empty directory", t.TempDir(), false},
		{"file", file, true},
		{"missing", filepath.Join(dir, "absent"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DirChecker(tt.path).CheckRoot(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckRoot(%s) = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestCheck_NoStore(t *testing.T) {
	r := New(nil, &mockRootChecker{}).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[IndexedStore] != CheckDisabled {
		t.Errorf("expected indexed_store %q, got %q", CheckDisabled, r.Checks[IndexedStore])
	}
}
