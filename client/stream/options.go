package stream

import (
	"errors"
	"hash"
)

// Option defines optional settings for streaming a body to a sink.
type Option func(*options) error

type options struct {
	checksum *checksumVerifier
	progress bool
}

// WithChecksum enables checksum validation of the streamed bytes.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress enables periodic progress logging via the logger
// supplied to Copy.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}
