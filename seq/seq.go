package seq

import "context"

// Sequence issues record ids. Ids are strictly increasing, never zero and
// never reused. Use Local (default) for a single process, or Redis when
// several processes share one caller-side index and must not collide.
type Sequence interface {
	// Next returns a fresh id.
	Next(ctx context.Context) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
