// Package client provides the core implementation of the streaming
// download client built on [net/http].
//
// Each call issues a GET or POST and streams the response body into a
// caller-supplied output sink, never buffering the full payload in
// memory. A dedicated receiver worker writes chunks to the sink in
// arrival order; the caller blocks on the worker's result bounded by a
// wall-clock wait timeout.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithUserAgent("myapp/1.0"),
//		client.WithThrottle(10, 5),
//	)
//
// # Downloading
//
// Stream a body into any io.Writer:
//
//	var buf bytes.Buffer
//	resp, err := c.Get(ctx, "https://example.com/big.bin", &buf,
//		client.WithWaitTimeout(30*time.Second),
//	)
//
// On success resp carries the status code, the response headers, and
// the byte count written to the sink. On failure err is an *[Error]
// whose reason is either the transport's error or [ErrWaitTimeout].
// The raising variants [Client.MustGet] and [Client.MustPost] panic
// with the identical *[Error] instead of returning it.
//
// # Async transfers
//
// [Client.GetAsync] returns a [stream.Result] immediately:
//
//	r := c.GetAsync(ctx, url, sink)
//	// ... do other work ...
//	out, err := r.Await(time.Minute)
//
// Batches share a [stream.Queue] via [WithQueue]; [stream.Result.Wait]
// then blocks for the whole batch.
//
// # File destinations
//
// [Client.GetFile] stages bytes in a temp file and renames it into
// place on success:
//
//	resp, err := c.GetFile(ctx, url, "/tmp/file.bin",
//		client.WithChecksum(sha256.New(), expectedHex),
//		client.WithProgress(),
//	)
//
// For lower-level control see the
// [github.com/streamsink/streamsink/client/stream] package.
package client
