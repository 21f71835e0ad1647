// Package stream implements the receiving half of a transfer: a
// worker that observes the response as it arrives, writes body chunks
// to the caller's sink in order, and resolves a [Result] exactly once
// with the terminal outcome.
//
// # Receiving a body
//
// [Copy] drains a response body into any io.Writer:
//
//	n, err := stream.Copy(ctx, sink, resp.Body, resp.ContentLength, logger)
//
// # Tracking a worker
//
// [Go] runs a [WorkFunc] in its own goroutine and returns a [Result].
// The caller blocks on it with a bounded wait:
//
//	r := stream.Go(ctx, work)
//	out, err := r.Await(60 * time.Second) // ErrAwaitTimeout if exceeded
//
// # Batches
//
// [Queue] runs many transfers under a concurrency limit:
//
//	q := stream.NewQueue(4)
//	r1 := q.Start(ctx, work1)
//	r2 := q.Start(ctx, work2)
//	err := q.Wait() // all errors joined
//
// # File destinations
//
// [FileSink] stages bytes in a temp file and renames it into place on
// Commit, so the destination path never holds a partial body.
//
// Most callers should use the higher-level
// [github.com/streamsink/streamsink/client] package.
package stream
