// Package fetcher implements the authenticated, rate-limited, retrying HTTP
// GET used against NYC Open Data endpoints (spec.md §4.1, C1). Credentials
// are carried explicitly on the Client value, never read from process
// globals mid-run (spec.md §9: "ambient sessions" anti-pattern).
package fetcher // import "github.com/propplyai/propply-ai/pkg/fetcher"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/propplyai/propply-ai/pkg/model"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBaseURL = "https://data.cityofnewyork.us/resource"

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 10 * time.Second
)

// Credentials bundles the optional auth this process may use against the
// upstream API. Both are per-process configuration, carried on the Client.
type Credentials struct {
	AppToken    string
	BasicKeyID  string
	BasicSecret string
}

// Client fetches dataset rows over HTTP with retry/backoff, a shared
// process-wide token bucket, and a circuit breaker per dataset endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	limiter    *rate.Limiter

	breakersMu sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker
}

// NewClient builds a Client. rps is the process-wide requests/second cap
// (spec.md §4.1: R=10 with an app token, R=2 without); callers typically
// pass rate.Limit(10) or rate.Limit(2) accordingly.
func NewClient(creds Credentials, rps rate.Limit) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		creds:      creds,
		limiter:    rate.NewLimiter(rps, 1),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
}

// SetBaseURLForTest overrides the upstream base URL; production callers
// never need this, it exists only so other packages' tests can point a
// Client at an httptest.Server.
func (c *Client) SetBaseURLForTest(baseURL string) {
	c.baseURL = baseURL
}

// DefaultRPS returns the §4.1 token-bucket rate for the given credentials:
// 10 req/s with an app token configured, 2 req/s otherwise.
func DefaultRPS(creds Credentials) rate.Limit {
	if creds.AppToken != "" {
		return rate.Limit(10)
	}
	return rate.Limit(2)
}

// breakerFor returns the circuit breaker for endpointID, creating it on
// first use. The orchestrator's worker pool calls Fetch (and so this) for
// several domains concurrently, so the map itself needs its own lock; the
// breaker it returns is safe for concurrent use on its own.
func (c *Client) breakerFor(endpointID string) *gobreaker.CircuitBreaker {
	c.breakersMu.Lock()
	defer c.breakersMu.Unlock()

	if b, ok := c.breakers[endpointID]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        endpointID,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
	})
	c.breakers[endpointID] = b
	return b
}

// Query is one request's worth of SoQL parameters.
type Query struct {
	Where  string
	Select string
	Order  string
	Group  string
	Limit  int
	Offset int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Where != "" {
		v.Set("$where", q.Where)
	}
	if q.Select != "" {
		v.Set("$select", q.Select)
	}
	if q.Order != "" {
		v.Set("$order", q.Order)
	}
	if q.Group != "" {
		v.Set("$group", q.Group)
	}
	if q.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("$offset", strconv.Itoa(q.Offset))
	}
	return v
}

// FetchOptions carries the per-dataset quirks the caller (search engine)
// already resolved from the dataset registry.
type FetchOptions struct {
	EndpointID       string
	Timeout          time.Duration
	MaxAttempts      int
	SimplifiedSelect string
}

// Fetch executes one authenticated GET against endpointID with the given
// query, applying retry/backoff and the shared rate limiter, and returns
// the decoded rows. See spec.md §4.1 for the full retry/error policy.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions, q Query) ([]model.Row, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	breaker := c.breakerFor(opts.EndpointID)

	var lastErr error
	triedSimplified := false
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.waitForToken(ctx); err != nil {
			return nil, model.NewError(model.ErrorKindNetwork, "rate limiter wait", err)
		}

		result, err := breaker.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, opts.EndpointID, q, timeout)
		})
		if err == nil {
			return result.([]model.Row), nil
		}

		typed, ok := err.(*model.Error)
		if !ok {
			return nil, model.NewError(model.ErrorKindRemote, "circuit breaker", err)
		}
		lastErr = typed

		if typed.Kind == model.ErrorKindBadQuery && opts.SimplifiedSelect != "" && !triedSimplified {
			log.Warningf("fetcher: %s returned 400, retrying with simplified select", opts.EndpointID)
			q.Select = opts.SimplifiedSelect
			triedSimplified = true
			continue
		}

		if !retryable(typed.Kind) || attempt == maxAttempts-1 {
			break
		}

		sleep := backoffFor(typed.Kind, attempt)
		log.Warningf("fetcher: %s attempt %d/%d failed (%s), sleeping %s", opts.EndpointID, attempt+1, maxAttempts, typed.Kind, sleep)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, model.NewError(model.ErrorKindDeadline, "context done during backoff", ctx.Err())
		}
	}
	return nil, lastErr
}

func retryable(kind model.ErrorKind) bool {
	switch kind {
	case model.ErrorKindRate, model.ErrorKindNetwork:
		return true
	default:
		return false
	}
}

func backoffFor(kind model.ErrorKind, attempt int) time.Duration {
	if kind == model.ErrorKindNetwork {
		return 2 * time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

func (c *Client) waitForToken(ctx context.Context) error {
	reserveCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.limiter.Wait(reserveCtx)
}

func (c *Client) doOnce(ctx context.Context, endpointID string, q Query, timeout time.Duration) ([]model.Row, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, endpointID, q.values().Encode())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, model.NewError(model.ErrorKindRemote, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "propply-ai/2.0 (property compliance aggregation)")
	if c.creds.AppToken != "" {
		req.Header.Set("X-App-Token", c.creds.AppToken)
	}
	if c.creds.BasicKeyID != "" && c.creds.BasicSecret != "" {
		req.SetBasicAuth(c.creds.BasicKeyID, c.creds.BasicSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, model.NewError(model.ErrorKindNetwork, "request timeout", err)
		}
		return nil, model.NewError(model.ErrorKindNetwork, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewError(model.ErrorKindNetwork, "read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var rows []model.Row
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, model.NewError(model.ErrorKindDecode, "invalid JSON", err)
		}
		return rows, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, model.NewError(model.ErrorKindRate, "rate limited (429)", nil)
	case resp.StatusCode >= 500:
		return nil, model.NewError(model.ErrorKindRate, fmt.Sprintf("server error (%d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, model.NewError(model.ErrorKindBadQuery, "bad query (400)", nil)
	default:
		return nil, model.NewError(model.ErrorKindRemote, fmt.Sprintf("unexpected status (%d)", resp.StatusCode), nil)
	}
}
