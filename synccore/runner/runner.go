// Package runner executes a set of sync streams concurrently, bounding
// how many run at once and collecting every stream's result (or error)
// instead of stopping at the first failure.
package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/avk2it/synccore/synccore"
)

// Stream is the shape a SyncJob[TSource, TTarget] already satisfies: Run
// drives one full pass over the stream. Defining it as a plain interface
// lets Runner hold streams of different TSource/TTarget instantiations in
// a single slice.
type Stream interface {
	Run(ctx context.Context) (synccore.SyncResult, error)
}

// Outcome pairs a stream's name with what happened when it ran.
type Outcome struct {
	Name   string
	Result synccore.SyncResult
	Err    error
}

// Runner runs a fixed set of named streams with bounded concurrency.
type Runner struct {
	streams     map[string]Stream
	order       []string
	concurrency int
}

// New creates a Runner with the given concurrency cap. A cap <= 0 means
// unbounded (all streams run at once).
func New(concurrency int) *Runner {
	return &Runner{streams: make(map[string]Stream), concurrency: concurrency}
}

// Add registers a stream under name. Registration order is preserved for
// Outcomes, independent of completion order.
func (r *Runner) Add(name string, stream Stream) {
	if _, exists := r.streams[name]; !exists {
		r.order = append(r.order, name)
	}
	r.streams[name] = stream
}

// RunAll runs every registered stream, waiting for all of them to finish
// before returning. It does not stop early when one stream errors — every
// stream gets a chance to run, and every outcome (success or error) is
// reported back in registration order.
//
// ctx cancellation is propagated to any streams still running or queued;
// a cancelled ctx does not itself count as a per-stream error beyond
// whatever error that stream's Run returns.
func (r *Runner) RunAll(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, len(r.order))
	for i, name := range r.order {
		outcomes[i].Name = name
	}

	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, name := range r.order {
		i, name := i, name
		stream := r.streams[name]
		g.Go(func() error {
			result, err := stream.Run(gctx)
			outcomes[i].Result = result
			outcomes[i].Err = err
			return nil
		})
	}

	// Errors are captured per-stream above; Wait only ever returns nil
	// here since no goroutine propagates its error through g.
	_ = g.Wait()
	return outcomes
}
