package stream

import (
	"context"
	"net/http"
	"time"
)

// Outcome is the terminal success value of a transfer: the response
// status and headers observed on arrival, and the total bytes written
// to the sink.
type Outcome struct {
	Status  int
	Headers http.Header
	Bytes   int64
}

// WorkFunc is the signature for a transfer worker.
type WorkFunc func(ctx context.Context) (*Outcome, error)

// Result represents an in-flight or completed transfer. It resolves
// exactly once, after every chunk preceding the terminal signal has
// been flushed to the sink.
type Result struct {
	done    chan struct{}
	outcome *Outcome
	err     error
	cancel  context.CancelFunc
	queue   *Queue
}

// Go launches fn as an independent worker and returns a Result for
// tracking it. It is shorthand for starting on a fresh unlimited Queue.
func Go(ctx context.Context, fn WorkFunc) *Result {
	return NewQueue(0).Start(ctx, fn)
}

// Failed returns an already-resolved Result carrying err. Used when a
// transfer cannot be started at all, so that callers of the async
// variants observe every fault through the same channel.
func Failed(err error) *Result {
	done := make(chan struct{})
	close(done)

	return &Result{
		done:   done,
		err:    err,
		cancel: func() {},
		queue:  NewQueue(0),
	}
}

// Done returns a channel that is closed when the transfer completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Outcome blocks until the transfer completes and returns its terminal
// value.
func (r *Result) Outcome() (*Outcome, error) {
	<-r.done
	return r.outcome, r.err
}

// Err blocks until the transfer completes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Await is a timed receive on the transfer's completion. If d elapses
// first it returns ErrAwaitTimeout; the worker itself is not touched.
// A non-positive d blocks indefinitely.
func (r *Result) Await(d time.Duration) (*Outcome, error) {
	if d <= 0 {
		return r.Outcome()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-r.done:
		return r.outcome, r.err
	case <-timer.C:
		return nil, ErrAwaitTimeout
	}
}

// Wait blocks until every transfer started on the same queue completes.
// Returns all errors joined.
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Cancel cancels this transfer's context.
func (r *Result) Cancel() {
	r.cancel()
}
