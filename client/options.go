package client

import (
	"errors"
	"fmt"
	"hash"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/streamsink/streamsink/client/stream"
	"github.com/streamsink/streamsink/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
// These cover the transport-level passthrough settings; redirect
// following is on unless explicitly disabled.
type Option func(*options) error

type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying
// [http.Client]. This is a transport deadline; the per-call blocking
// wait is governed separately by [WithWaitTimeout].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given
// requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP
// redirects. Following is the forced default; this explicit opt-out
// wins over it.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer injects a [trace.Tracer] for per-transfer spans.
// A no-op tracer is used unless set.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// RequestOption is a functional option recognized by the per-call verbs.
type RequestOption func(*requestOpts) error

type requestOpts struct {
	waitTimeout  time.Duration
	headers      map[string][]string
	contentType  *string
	queue        *stream.Queue
	streamOpts   []stream.Option
	skipExisting bool
}

// WithWaitTimeout bounds the caller's blocking wait on the transfer
// result. It does not deadline the network operation itself.
// Defaults to 60 seconds.
func WithWaitTimeout(d time.Duration) RequestOption {
	return func(opts *requestOpts) error {
		if d < 0 {
			return errors.New("wait timeout must not be negative")
		}
		opts.waitTimeout = d
		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		opts.headers = headers
		return nil
	}
}

// WithHeader adds a single header to the outgoing request.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOpts) error {
		if key == "" {
			return errors.New("header key must not be empty")
		}
		if opts.headers == nil {
			opts.headers = map[string][]string{}
		}
		opts.headers[key] = append(opts.headers[key], value)
		return nil
	}
}

// WithContentType sets the Content-Type header on a POST body.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}
		opts.contentType = &contentType
		return nil
	}
}

// WithQueue starts the transfer on q instead of a fresh unlimited
// queue, subjecting it to q's concurrency limit. Meaningful for the
// async variants; [stream.Result.Wait] then covers the whole batch.
func WithQueue(q *stream.Queue) RequestOption {
	return func(opts *requestOpts) error {
		if q == nil {
			return errors.New("queue must not be nil")
		}
		opts.queue = q
		return nil
	}
}

// WithProgress enables periodic progress logging for the transfer.
func WithProgress() RequestOption {
	return func(opts *requestOpts) error {
		opts.streamOpts = append(opts.streamOpts, stream.WithProgress())
		return nil
	}
}

// WithChecksum enables checksum validation of the streamed bytes.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) RequestOption {
	return func(opts *requestOpts) error {
		opts.streamOpts = append(opts.streamOpts, stream.WithChecksum(h, expected))
		return nil
	}
}

// WithSkipExisting causes [Client.GetFile] to return immediately when
// the destination file already exists. Ignored by the sink-based verbs.
func WithSkipExisting() RequestOption {
	return func(opts *requestOpts) error {
		opts.skipExisting = true
		return nil
	}
}
