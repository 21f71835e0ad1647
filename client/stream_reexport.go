package client

import (
	"github.com/streamsink/streamsink/client/stream"
)

// Re-export user-facing types and sentinels from [stream], so most
// callers only ever import this package.

type (
	// StreamError wraps a stream sentinel error with additional detail.
	StreamError = stream.Error

	// Result represents an in-flight or completed async transfer.
	Result = stream.Result

	// Queue manages a batch of concurrent transfers.
	Queue = stream.Queue
)

var (
	// ErrLengthMismatch indicates the byte count did not match the
	// server-reported Content-Length.
	ErrLengthMismatch = stream.ErrLengthMismatch

	// ErrChecksumMismatch indicates the streamed bytes did not match
	// the expected checksum.
	ErrChecksumMismatch = stream.ErrChecksumMismatch

	// ErrTransferCancelled indicates the transfer was cancelled via context.
	ErrTransferCancelled = stream.ErrTransferCancelled

	// ErrQueueShutdown indicates the transfer queue was shut down.
	ErrQueueShutdown = stream.ErrQueueShutdown
)

// NewQueue creates a transfer queue with the given concurrency limit,
// for use with [WithQueue]. If maxConcurrent <= 0, concurrency is
// unlimited.
func NewQueue(maxConcurrent int) *Queue { return stream.NewQueue(maxConcurrent) }
