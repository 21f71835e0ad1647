package stream

import (
	"errors"
	"fmt"
)

var (
	ErrAwaitTimeout      = errors.New("await timed out")
	ErrLengthMismatch    = errors.New("body length mismatch")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrTransferCancelled = errors.New("transfer cancelled")
	ErrQueueShutdown     = errors.New("queue shut down")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
