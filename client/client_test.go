package client_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/streamsink/streamsink/client"
)

func TestClient_GetStreamsToSink(t *testing.T) {
	body := "hello world"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	resp, err := c.Get(t.Context(), ts.URL, &sink)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Bytes != int64(len(body)) {
		t.Errorf("expected %d bytes, got %d", len(body), resp.Bytes)
	}
	if int64(sink.Len()) != resp.Bytes {
		t.Errorf("sink holds %d bytes, response reports %d", sink.Len(), resp.Bytes)
	}
	if diff := cmp.Diff(body, sink.String()); diff != "" {
		t.Errorf("sink content mismatch (-want +got):\n%s", diff)
	}
	if got := resp.Headers.Get("X-Custom"); got != "value" {
		t.Errorf("expected header X-Custom=value, got %q", got)
	}
}

func TestClient_PostBodySentOnce(t *testing.T) {
	var hits atomic.Int32
	bodyCh := make(chan []byte, 1)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		bodyCh <- b
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, "created")
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	resp, err := c.Post(t.Context(), ts.URL, []byte("payload"), &sink)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("expected status 201, got %d", resp.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected body sent exactly once, server saw %d requests", got)
	}
	if diff := cmp.Diff("payload", string(<-bodyCh)); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
	if sink.String() != "created" {
		t.Errorf("expected sink to hold response body, got %q", sink.String())
	}
}

func TestClient_WaitTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "partial")
		w.(http.Flusher).Flush()

		// Hold the body open past the caller's wait timeout.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	start := time.Now()
	_, err = c.Get(t.Context(), ts.URL, &sink, client.WithWaitTimeout(100*time.Millisecond))
	elapsed := time.Since(start)

	if !errors.Is(err, client.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got: %v", err)
	}

	var cerr *client.Error
	if !errors.As(err, &cerr) {
		t.Errorf("expected *client.Error, got %T", err)
	}

	if elapsed > time.Second {
		t.Errorf("timeout should fire near the configured wait, took %v", elapsed)
	}

	// Bytes delivered before the timeout stay in the sink, uncorrupted.
	if diff := cmp.Diff("partial", sink.String()); diff != "" {
		t.Errorf("sink content mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_MustGet_MatchesGet(t *testing.T) {
	body := "identical payload"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sinkA, sinkB bytes.Buffer
	safe, err := c.Get(t.Context(), ts.URL, &sinkA)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	raising := c.MustGet(t.Context(), ts.URL, &sinkB)

	if diff := cmp.Diff(safe, raising); diff != "" {
		t.Errorf("MustGet payload differs from Get (-safe +raising):\n%s", diff)
	}
}

func TestClient_MustGet_PanicsWithSameReason(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	badURL := "not-a-url"

	var sink bytes.Buffer
	_, safeErr := c.Get(t.Context(), badURL, &sink)
	if safeErr == nil {
		t.Fatal("expected error for invalid URL")
	}

	defer func() {
		recovered := recover()
		if recovered == nil {
			t.Fatal("expected MustGet to panic")
		}

		raised, ok := recovered.(*client.Error)
		if !ok {
			t.Fatalf("expected panic value *client.Error, got %T", recovered)
		}
		if raised.Error() != safeErr.Error() {
			t.Errorf("panic reason %q differs from safe-variant reason %q", raised.Error(), safeErr.Error())
		}
	}()

	c.MustGet(t.Context(), badURL, &sink)
}

func TestClient_InvalidURLIsAValue(t *testing.T) {
	// Faults at request issuance come back as failure values, same as
	// transport errors. Nothing escapes as a panic from the safe verbs.
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	_, err = c.Get(t.Context(), "://missing-scheme", &sink)

	if !errors.Is(err, client.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer, got: %v", err)
	}
}

func TestClient_NilSink(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := c.Get(t.Context(), "http://localhost", nil); err == nil {
		t.Error("expected error for nil sink")
	}
}

func TestClient_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "moved")
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	resp, err := c.Get(t.Context(), ts.URL+"/old", &sink)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected redirect to be followed to 200, got %d", resp.StatusCode)
	}
	if sink.String() != "moved" {
		t.Errorf("expected redirect target body, got %q", sink.String())
	}
}

func TestClient_WithNoFollowRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	c, err := client.Build(
		client.WithClient(&http.Client{}),
		client.WithNoFollowRedirects(),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	resp, err := c.Get(t.Context(), ts.URL+"/old", &sink)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Status is passed through untouched; no classification happens.
	if resp.StatusCode != http.StatusFound {
		t.Errorf("expected status 302, got %d", resp.StatusCode)
	}
}

func TestClient_HeadersForwarded(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Token"); got != "abc123" {
			t.Errorf("expected X-Token=abc123, got %q", got)
		}
		if got := r.Header.Get("X-Extra"); got != "more" {
			t.Errorf("expected X-Extra=more, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	_, err = c.Get(t.Context(), ts.URL, &sink,
		client.WithHeaders(map[string][]string{"X-Token": {"abc123"}}),
		client.WithHeader("X-Extra", "more"),
	)
	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
}

func TestClient_Checksum(t *testing.T) {
	body := "checksummed content"
	sum := sha256.Sum256([]byte(body))

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("valid", func(t *testing.T) {
		var sink bytes.Buffer
		_, err := c.Get(t.Context(), ts.URL, &sink,
			client.WithChecksum(sha256.New(), hex.EncodeToString(sum[:])),
		)
		if err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		var sink bytes.Buffer
		_, err := c.Get(t.Context(), ts.URL, &sink,
			client.WithChecksum(sha256.New(), "deadbeef"),
		)
		if !errors.Is(err, client.ErrChecksumMismatch) {
			t.Errorf("expected ErrChecksumMismatch, got: %v", err)
		}
	})
}

func TestClient_GetFile(t *testing.T) {
	body := "file contents"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "file.bin")
	resp, err := c.GetFile(t.Context(), ts.URL, dest)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if resp.Bytes != int64(len(body)) {
		t.Errorf("expected %d bytes, got %d", len(body), resp.Bytes)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if diff := cmp.Diff(body, string(got)); diff != "" {
		t.Errorf("file content mismatch (-want +got):\n%s", diff)
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(dest), ".streamsink-*"))
	if err != nil {
		t.Fatalf("globbing temp files: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("expected no temp files, found %v", leftovers)
	}
}

func TestClient_GetFile_FailureLeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "whatever")
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "file.bin")
	_, err = c.GetFile(t.Context(), ts.URL, dest,
		client.WithChecksum(sha256.New(), "deadbeef"),
	)
	if !errors.Is(err, client.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got: %v", err)
	}

	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected destination to not exist, stat err: %v", err)
	}
}

func TestClient_GetFile_SkipExisting(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "fresh")
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "file.bin")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seeding destination: %v", err)
	}

	resp, err := c.GetFile(t.Context(), ts.URL, dest, client.WithSkipExisting())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if resp != nil {
		t.Errorf("expected nil response for skipped download, got %+v", resp)
	}
	if got := hits.Load(); got != 0 {
		t.Errorf("expected no request for skipped download, server saw %d", got)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(got) != "existing" {
		t.Errorf("expected existing content untouched, got %q", got)
	}
}

func TestClient_GetAsync(t *testing.T) {
	body := "async body"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	r := c.GetAsync(t.Context(), ts.URL, &sink)

	out, err := r.Await(5 * time.Second)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if out.Bytes != int64(len(body)) {
		t.Errorf("expected %d bytes, got %d", len(body), out.Bytes)
	}
	if sink.String() != body {
		t.Errorf("expected sink to hold %q, got %q", body, sink.String())
	}
}

func TestClient_GetAsync_InvalidURLFailsViaResult(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	r := c.GetAsync(t.Context(), "not-a-url", &sink)

	if err := r.Err(); !errors.Is(err, client.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer, got: %v", err)
	}
}

func TestClient_BatchWithQueue(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "batch item")
	}))
	defer ts.Close()

	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	q := client.NewQueue(2)

	var sinks [4]bytes.Buffer
	var last *client.Result
	for i := range sinks {
		last = c.GetAsync(t.Context(), ts.URL, &sinks[i], client.WithQueue(q))
	}

	if err := last.Wait(); err != nil {
		t.Fatalf("expected no error from batch, got: %v", err)
	}

	for i := range sinks {
		if sinks[i].String() != "batch item" {
			t.Errorf("sink %d holds %q", i, sinks[i].String())
		}
	}
}

func TestBuild_OptionValidation(t *testing.T) {
	testCases := []struct {
		name string
		opt  client.Option
	}{
		{name: "nil http client", opt: client.WithClient(nil)},
		{name: "nil transport", opt: client.WithTransport(nil)},
		{name: "negative timeout", opt: client.WithTimeout(-1)},
		{name: "nil tracer", opt: client.WithTracer(nil)},
		{name: "zero rps throttle", opt: client.WithThrottle(0, 5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := client.Build(tc.opt); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_NegativeWaitTimeout(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	var sink bytes.Buffer
	if _, err := c.Get(t.Context(), "http://localhost", &sink, client.WithWaitTimeout(-1)); err == nil {
		t.Error("expected error for negative wait timeout")
	}
}
