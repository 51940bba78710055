// AngelaMos | 2026
// drain.go

package core

import "context"

type drainKey struct{}

// WithDrain attaches a channel that closes when the server begins shutting
// down.
func WithDrain(ctx context.Context, done <-chan struct{}) context.Context {
	return context.WithValue(ctx, drainKey{}, done)
}

// Drain returns the shutdown channel of ctx. Long-lived handlers such as
// event streams return once it closes; ordinary requests ignore it and are
// drained normally. Without a server the channel is nil and never fires.
func Drain(ctx context.Context) <-chan struct{} {
	done, _ := ctx.Value(drainKey{}).(<-chan struct{})
	return done
}
