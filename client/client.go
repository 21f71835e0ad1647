// Package client implements an HTTP client that streams response
// bodies into caller-supplied output sinks.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/streamsink/streamsink/client/stream"
	"github.com/streamsink/streamsink/client/throttle"
)

// Client wraps the std-lib *http.Client.
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs.
type Client struct {
	c      *http.Client
	logger *slog.Logger
	tracer trace.Tracer
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:      http.DefaultClient,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, client.logger, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Get issues a GET against rawURL and streams the response body into
// sink, blocking until the transfer completes or the wait timeout
// elapses. On timeout the failure carries [ErrWaitTimeout]; bytes
// already written to sink are left as delivered.
func (c *Client) Get(ctx context.Context, rawURL string, sink io.Writer, optFns ...RequestOption) (*Response, error) {
	return c.fetch(ctx, http.MethodGet, rawURL, nil, sink, optFns...)
}

// MustGet is the raising variant of [Client.Get]: on failure it panics
// with the identical *Error value; on success it returns the identical
// Response unwrapped.
func (c *Client) MustGet(ctx context.Context, rawURL string, sink io.Writer, optFns ...RequestOption) *Response {
	resp, err := c.Get(ctx, rawURL, sink, optFns...)
	if err != nil {
		panic(err)
	}
	return resp
}

// Post issues a POST carrying body against rawURL and streams the
// response body into sink. The request body is sent exactly once; an
// empty body is permitted.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, sink io.Writer, optFns ...RequestOption) (*Response, error) {
	return c.fetch(ctx, http.MethodPost, rawURL, body, sink, optFns...)
}

// MustPost is the raising variant of [Client.Post].
func (c *Client) MustPost(ctx context.Context, rawURL string, body []byte, sink io.Writer, optFns ...RequestOption) *Response {
	resp, err := c.Post(ctx, rawURL, body, sink, optFns...)
	if err != nil {
		panic(err)
	}
	return resp
}

// GetAsync starts a GET transfer and returns without blocking. Every
// fault, including ones that prevent the transfer from starting,
// surfaces through the returned [stream.Result].
func (c *Client) GetAsync(ctx context.Context, rawURL string, sink io.Writer, optFns ...RequestOption) *stream.Result {
	r, _, err := c.start(ctx, http.MethodGet, rawURL, nil, sink, optFns...)
	if err != nil {
		return stream.Failed(err)
	}
	return r
}

// PostAsync starts a POST transfer and returns without blocking.
func (c *Client) PostAsync(ctx context.Context, rawURL string, body []byte, sink io.Writer, optFns ...RequestOption) *stream.Result {
	r, _, err := c.start(ctx, http.MethodPost, rawURL, body, sink, optFns...)
	if err != nil {
		return stream.Failed(err)
	}
	return r
}

// GetFile streams a GET response into destPath via a [stream.FileSink]:
// bytes land in a temp file that is renamed into place on success and
// removed on failure, so destPath never holds a partial body.
// With [WithSkipExisting] it returns a nil Response untouched when
// destPath already exists.
func (c *Client) GetFile(ctx context.Context, rawURL, destPath string, optFns ...RequestOption) (*Response, error) {
	settings := requestOpts{waitTimeout: defaultWaitTimeout}
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return nil, &Error{URL: rawURL, Err: err}
		}
	}

	if settings.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			c.logger.Info("skipping existing file", "path", destPath)
			return nil, nil
		}
	}

	sink, err := stream.NewFileSink(destPath)
	if err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	resp, err := c.Get(ctx, rawURL, sink, optFns...)
	if err != nil {
		if aerr := sink.Abort(); aerr != nil {
			c.logger.Error("aborting file sink", "error", aerr)
		}
		return nil, err
	}

	if err := sink.Commit(); err != nil {
		return nil, &Error{URL: rawURL, Err: err}
	}

	return resp, nil
}

// fetch runs one transfer synchronously: spawn the receiver worker,
// then block on its result bounded by the wait timeout.
func (c *Client) fetch(ctx context.Context, method, rawURL string, body []byte, sink io.Writer, optFns ...RequestOption) (*Response, error) {
	r, wait, err := c.start(ctx, method, rawURL, body, sink, optFns...)
	if err != nil {
		return nil, err
	}

	out, err := r.Await(wait)
	if err != nil {
		// Abandoning the wait reclaims the worker and its connection.
		// Bytes already written to the sink stay as delivered.
		r.Cancel()

		if errors.Is(err, stream.ErrAwaitTimeout) {
			return nil, &Error{URL: rawURL, Err: ErrWaitTimeout}
		}

		return nil, &Error{URL: rawURL, Err: err}
	}

	return &Response{StatusCode: out.Status, Headers: out.Headers, Bytes: out.Bytes}, nil
}

// start validates the transfer descriptor and launches the receiver
// worker. All faults come back as *Error values; nothing escapes as a
// panic from this layer.
func (c *Client) start(ctx context.Context, method, rawURL string, body []byte, sink io.Writer, optFns ...RequestOption) (*stream.Result, time.Duration, error) {
	settings := requestOpts{waitTimeout: defaultWaitTimeout}
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return nil, 0, &Error{URL: rawURL, Err: err}
		}
	}

	if sink == nil {
		return nil, 0, &Error{URL: rawURL, Err: errors.New("sink must not be nil")}
	}

	desc := transfer{Method: method, URL: rawURL, WaitTimeout: settings.waitTimeout}
	if err := Validate(desc); err != nil {
		return nil, 0, &Error{URL: rawURL, Err: fmt.Errorf("%w: %w", ErrInvalidTransfer, err)}
	}

	transferID := uuid.NewString()
	logger := c.logger.With("transfer_id", transferID, "method", method, "url", rawURL)

	ctx, span := c.tracer.Start(ctx, "streamsink.transfer", trace.WithAttributes(
		attribute.String("transfer.id", transferID),
		attribute.String("http.request.method", method),
		attribute.String("url.full", rawURL),
	))

	queue := settings.queue
	if queue == nil {
		queue = stream.NewQueue(0)
	}

	r := queue.Start(ctx, func(ctx context.Context) (*stream.Outcome, error) {
		defer span.End()

		out, err := c.receive(ctx, method, rawURL, body, sink, settings, logger)
		if err != nil {
			span.RecordError(err)
			logger.Error("transfer failed", "error", err)
			return nil, err
		}

		span.SetAttributes(
			attribute.Int("http.response.status_code", out.Status),
			attribute.Int64("transfer.bytes", out.Bytes),
		)

		return out, nil
	})

	return r, settings.waitTimeout, nil
}

// receive is the worker body: issue the request, then write chunks to
// the sink in arrival order until the terminal signal.
func (c *Client) receive(ctx context.Context, method, rawURL string, body []byte, sink io.Writer, settings requestOpts, logger *slog.Logger) (*stream.Outcome, error) {
	var payload io.Reader
	if method == http.MethodPost {
		payload = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if settings.contentType != nil {
		req.Header.Set("Content-Type", *settings.contentType)
	}
	for k, vals := range settings.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("issuing request: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	n, err := stream.Copy(ctx, sink, resp.Body, resp.ContentLength, logger, settings.streamOpts...)
	if err != nil {
		return nil, err
	}

	return &stream.Outcome{Status: resp.StatusCode, Headers: resp.Header, Bytes: n}, nil
}
