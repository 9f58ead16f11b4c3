package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/propplyai/propply-ai/pkg/model"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := NewClient(Credentials{}, rate.Limit(1000))
	c.baseURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"bin":"1058037"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	rows, err := c.Fetch(context.Background(), FetchOptions{EndpointID: "abcd-1234", MaxAttempts: 1}, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["bin"] != "1058037" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestFetchBadQueryNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Fetch(context.Background(), FetchOptions{EndpointID: "abcd-1234", MaxAttempts: 3}, Query{})
	if model.KindOf(err) != model.ErrorKindBadQuery {
		t.Fatalf("expected BadQuery, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected 1 call (no retry on BadQuery), got %d", calls)
	}
}

func TestFetchSimplifiedSelectRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Fetch(context.Background(), FetchOptions{
		EndpointID:       "ipu4-2q9a",
		MaxAttempts:      3,
		SimplifiedSelect: "filing_number, bin",
	}, Query{Select: "too many columns"})
	if err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls (original + simplified retry), got %d", calls)
	}
}

func TestFetchRetriesOn5xxThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	start := time.Now()
	_, err := c.Fetch(context.Background(), FetchOptions{EndpointID: "abcd-1234", MaxAttempts: 3}, Query{})
	if err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < time.Second {
		t.Fatalf("expected backoff sleep before retry")
	}
}

func TestFetchDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Fetch(context.Background(), FetchOptions{EndpointID: "abcd-1234", MaxAttempts: 1}, Query{})
	if model.KindOf(err) != model.ErrorKindDecode {
		t.Fatalf("expected Decode, got %v", err)
	}
}
