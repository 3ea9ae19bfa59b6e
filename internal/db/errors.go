package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"
)

// Sentinel errors for database operations.
var (
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrUnavailable marks transport failures: dial, connection loss, client closed.
	ErrUnavailable = errors.New("db: unavailable")
	// ErrRangeTruncated marks a range search whose matches exceed the query limit.
	ErrRangeTruncated = errors.New("db: range result truncated")
)

// Op constants map to Valkey/Redis command names for error context.
const (
	OpIndexInfo = "FT.INFO"
	OpSearch    = "FT.SEARCH"
	OpHGetAll   = "HGETALL"
	OpScan      = "SCAN"
	OpPing      = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates a client error with op. Errors that did not come back from the
// server, except context cancellation and deadlines, are marked ErrUnavailable.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if isTransport(err) {
		return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
	}
	return &Error{Op: op, Err: err}
}

func isTransport(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := rueidis.IsRedisErr(err); ok {
		return false
	}
	return true
}
