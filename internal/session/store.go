package session

import "context"

// Store is the per-call context registry, the only mutable state in the
// system. A lookup for an unknown call identifier yields the zero Context,
// treated as "no prior intent". Implementations must be safe for concurrent
// use across distinct call identifiers; the transport guarantees at most one
// in-flight turn per identifier, so per-identifier serialization is not a
// store concern.
type Store interface {
	Get(ctx context.Context, callID string) (Context, error)
	Put(ctx context.Context, callID string, c Context) error
	Remove(ctx context.Context, callID string) error
}
