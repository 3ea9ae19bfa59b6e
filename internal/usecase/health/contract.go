package health

import "context"

// DBPinger checks indexed store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// RootChecker checks that the partition root is readable.
type RootChecker interface {
	CheckRoot(ctx context.Context) error
}
