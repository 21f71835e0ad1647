package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// defaultWaitTimeout bounds the caller's blocking wait on a transfer
// unless overridden via WithWaitTimeout.
const defaultWaitTimeout = 60 * time.Second

var (
	// ErrWaitTimeout is the failure reason when the caller's wait
	// elapses before the transfer worker completes.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrInvalidTransfer is wrapped by failures of descriptor validation.
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// Response is the success value of a transfer: the status code and
// headers observed when the response arrived, and the total number of
// bytes written to the output sink.
type Response struct {
	StatusCode int
	Headers    http.Header
	Bytes      int64
}

// Error is the failure value of a transfer. Every error returned by
// the safe call variants is an *Error; the Must variants panic with
// the identical value.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// transfer describes one request/response cycle. Constructed per
// call, validated, and discarded when the call returns.
type transfer struct {
	Method      string        `validate:"required,oneof=GET POST"`
	URL         string        `validate:"required,http_url"`
	WaitTimeout time.Duration `validate:"min=0"`
}
