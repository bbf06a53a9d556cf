package feed

import "context"

// Transport is the change-feed connection a Feed pulls AccountUpdates
// from. Implementations are not required to be safe for concurrent use
// by more than one goroutine at a time — Feed.Run drives it serially.
type Transport interface {
	// Connect establishes (or re-establishes) the underlying
	// connection. Called once per reconnect attempt.
	Connect(ctx context.Context) error
	// Recv blocks until the next update is available, ctx is done, or
	// the connection fails.
	Recv(ctx context.Context) (AccountUpdate, error)
	// Close releases any held resources.
	Close() error
}
