// Package streamsink downloads HTTP response bodies straight into
// caller-supplied output sinks with bounded memory use. See the
// client package for the full surface; this package exposes the
// client builder plus package-level verbs bound to a default client.
package streamsink

import (
	"context"
	"io"
	"sync"

	"github.com/streamsink/streamsink/client"
)

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

var (
	defaultClient *client.Client
	defaultOnce   sync.Once
)

// def lazily builds the shared default client. Build without options
// cannot fail.
func def() *client.Client {
	defaultOnce.Do(func() {
		defaultClient, _ = client.Build()
	})
	return defaultClient
}

// Get streams a GET response body into sink using the default client.
func Get(ctx context.Context, url string, sink io.Writer, opts ...client.RequestOption) (*client.Response, error) {
	return def().Get(ctx, url, sink, opts...)
}

// MustGet is the raising variant of [Get]: it panics with the failure
// value instead of returning it.
func MustGet(ctx context.Context, url string, sink io.Writer, opts ...client.RequestOption) *client.Response {
	return def().MustGet(ctx, url, sink, opts...)
}

// Post streams a POST response body into sink using the default client.
func Post(ctx context.Context, url string, body []byte, sink io.Writer, opts ...client.RequestOption) (*client.Response, error) {
	return def().Post(ctx, url, body, sink, opts...)
}

// MustPost is the raising variant of [Post].
func MustPost(ctx context.Context, url string, body []byte, sink io.Writer, opts ...client.RequestOption) *client.Response {
	return def().MustPost(ctx, url, body, sink, opts...)
}
