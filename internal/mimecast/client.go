package mimecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mimecast-cli/internal/logger"
)

// apiPrefix is the path prefix for all resource calls. The token endpoint
// alone lives under the bare regional base.
const apiPrefix = "/api/v2"

// requestTimeout bounds one API round-trip.
const requestTimeout = 60 * time.Second

// Client executes API calls against an authenticated session. It performs
// no retries and no caching; a failed request surfaces as a typed error and
// retry policy belongs to the caller.
type Client struct {
	session  *Session
	httpc    *http.Client
	limiter  *RateLimiter
	maxPages int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithRateLimit overrides the default rate limit configuration.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Client) { c.limiter = NewRateLimiter(cfg) }
}

// WithMaxPages sets the safety ceiling for pagination loops.
func WithMaxPages(n int) Option {
	return func(c *Client) { c.maxPages = n }
}

// defaultMaxPages bounds runaway pagination loops; the provider signals
// termination by omitting the next cursor, so this only trips on a
// misbehaving endpoint.
const defaultMaxPages = 1000

// NewClient creates a client bound to the given session.
func NewClient(session *Session, opts ...Option) *Client {
	c := &Client{
		session:  session,
		httpc:    &http.Client{Timeout: requestTimeout},
		limiter:  NewRateLimiter(DefaultRateLimit),
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client is bound to.
func (c *Client) Session() *Session {
	return c.session
}

// wrapData applies the provider's wire convention of wrapping a single
// request object in a one-element data array. Kept as the only place that
// knows the shape so a future API version can change it here alone.
func wrapData(payload any) map[string]any {
	return map[string]any{"data": []any{payload}}
}

// Execute performs exactly one API call and normalizes its outcome.
//
// The token is validated before any network activity. A payload, when
// present, is wrapped as {data:[payload]} and serialized as JSON. Query
// parameters are URL-encoded with last-write-wins on duplicate keys.
// Failures map to the package's typed errors: *TransportError for network
// faults, *HTTPError for non-2xx statuses and *LogicalError for 2xx
// envelopes reporting success=false.
func (c *Client) Execute(
	ctx context.Context, method, path string, payload any, query url.Values,
) (*Envelope, error) {
	token, err := c.session.bearer(time.Now())
	if err != nil {
		return nil, err
	}

	target := c.buildURL(path, query)

	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(wrapData(payload))
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Authorization and Content-Type are fixed; callers cannot override them.
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Mc-Client-Req-Id", uuid.NewString())

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	logger.Debug("mimecast: %s %s", method, target)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	logger.Debug("mimecast: %s %s -> status %d, %d bytes", method, path, resp.StatusCode, len(raw))

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.limiter.RecordRateLimitError(retryAfter)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	env, err := parseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, &LogicalError{Fails: env.Fail}
	}

	return env, nil
}

// buildURL joins the session base URL, the /api/v2 prefix and the resource
// path, appending query parameters with duplicate keys collapsed to their
// last value.
func (c *Client) buildURL(path string, query url.Values) string {
	target := c.session.baseURL + apiPrefix + "/" + strings.TrimLeft(path, "/")
	if len(query) == 0 {
		return target
	}

	collapsed := url.Values{}
	for key, values := range query {
		if len(values) > 0 {
			collapsed.Set(key, values[len(values)-1])
		}
	}
	return target + "?" + collapsed.Encode()
}
