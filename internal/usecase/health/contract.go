package health

import "context"

// Pinger checks outcome store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LockInspector reports whether the batch load lock looks abandoned.
type LockInspector interface {
	LockStale() bool
}
