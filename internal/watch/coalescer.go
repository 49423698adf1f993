package watch

import "context"

// Coalescer serializes publish runs. Triggers arriving while a run is in
// flight collapse into at most one pending follow-up run.
type Coalescer struct {
	run     func(ctx context.Context)
	pending chan struct{}
}

// NewCoalescer wraps the given run function.
func NewCoalescer(run func(ctx context.Context)) *Coalescer {
	return &Coalescer{
		run:     run,
		pending: make(chan struct{}, 1),
	}
}

// Trigger requests a run. It never blocks.
func (c *Coalescer) Trigger() {
	select {
	case c.pending <- struct{}{}:
	default:
	}
}

// Start consumes triggers until the context is canceled.
func (c *Coalescer) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.pending:
			c.run(ctx)
		}
	}
}
