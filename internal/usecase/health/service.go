package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled marks a component that is not configured.
	CheckDisabled CheckResult = "disabled"
)

// Check names.
const (
	IndexedStore    = "indexed_store"
	PartitionedRoot = "partitioned_root"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db   DBPinger
	root RootChecker
}

// New creates a Service. Either checker can be nil when its source is not configured.
func New(db DBPinger, root RootChecker) *Service {
	return &Service{db: db, root: root}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	switch {
	case s.db == nil:
		checks[IndexedStore] = CheckDisabled
	case s.db.Ping(ctx) != nil:
		checks[IndexedStore] = CheckError
	default:
		checks[IndexedStore] = CheckOK
	}

	switch {
	case s.root == nil:
		checks[PartitionedRoot] = CheckDisabled
	case s.root.CheckRoot(ctx) != nil:
		checks[PartitionedRoot] = CheckError
	default:
		checks[PartitionedRoot] = CheckOK
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

// DirChecker checks a local directory.
type DirChecker string

// CheckRoot implements RootChecker.
func (d DirChecker) CheckRoot(context.Context) error {
	info, err := os.Stat(string(d))
	if err != nil {
		return fmt.Errorf("stat partition root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("partition root %s is not a directory", string(d))
	}
	f, err := os.Open(string(d))
	if err != nil {
		return fmt.Errorf("open partition root: %w", err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read partition root: %w", err)
	}
	return nil
}
