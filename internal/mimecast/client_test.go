package mimecast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// testRateLimit keeps tests fast regardless of the default limiter.
var testRateLimit = RateLimitConfig{RequestsPerSecond: 10000, BurstSize: 10000}

// newTestSession builds a session without going through the token endpoint.
func newTestSession(baseURL, token string, expiry time.Time) *Session {
	return &Session{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   &oauth2.Token{AccessToken: token, TokenType: "Bearer", Expiry: expiry},
	}
}

// newTestClient serves /api/v2/ from handler and returns a connected client.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.Handle("/api/v2/", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	session := newTestSession(srv.URL, "tok1", time.Now().Add(time.Hour))
	return NewClient(session, WithRateLimit(testRateLimit))
}

func TestExecute_SendsAuthAndEnvelopeBody(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/account/get-account", r.URL.Path)
		assert.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Mc-Client-Req-Id"))

		gotBody, _ = io.ReadAll(r.Body)
		//nolint:errcheck
		w.Write([]byte(`{"success": true, "data": [{"accountCode": "A123"}]}`))
	})

	env, err := client.Execute(context.Background(), http.MethodPost, "account/get-account",
		map[string]any{"accountCode": "A123"}, nil)
	require.NoError(t, err)

	// Payload is wrapped in a one-element data array.
	assert.JSONEq(t, `{"data":[{"accountCode":"A123"}]}`, string(gotBody))

	var data []map[string]any
	require.NoError(t, env.DecodeData(&data))
	require.Len(t, data, 1)
	assert.Equal(t, "A123", data[0]["accountCode"])
}

func TestExecute_GetWithQueryParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		// Duplicate keys collapse to their last value.
		assert.Equal(t, "b", r.URL.Query().Get("key"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		//nolint:errcheck
		w.Write([]byte(`{"success": true, "data": []}`))
	})

	query := url.Values{}
	query.Add("key", "a")
	query.Add("key", "b")
	query.Add("page", "1")

	_, err := client.Execute(context.Background(), http.MethodGet, "system/info", nil, query)
	require.NoError(t, err)
}

func TestExecute_ExpiredTokenBeforeNetwork(t *testing.T) {
	var requests atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := newTestSession(srv.URL, "tok1", time.Now().Add(-time.Minute))
	client := NewClient(session, WithRateLimit(testRateLimit))

	_, err := client.Execute(context.Background(), http.MethodGet, "system/info", nil, nil)

	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Zero(t, requests.Load(), "no network call for an expired session")
}

func TestExecute_NotConnected(t *testing.T) {
	client := NewClient(&Session{}, WithRateLimit(testRateLimit))

	_, err := client.Execute(context.Background(), http.MethodGet, "system/info", nil, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestExecute_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		//nolint:errcheck
		w.Write([]byte(`{"fail":[{"message":"boom"}]}`))
	})

	_, err := client.Execute(context.Background(), http.MethodPost, "account/get-account", nil, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "boom")
}

func TestExecute_LogicalError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		//nolint:errcheck
		w.Write([]byte(`{
			"success": false,
			"data": [],
			"fail": [{"key": "err_validation", "errors": [{"code": "invalid", "message": "bad field"}]}]
		}`))
	})

	_, err := client.Execute(context.Background(), http.MethodPost, "account/get-account", nil, nil)

	var logicalErr *LogicalError
	require.ErrorAs(t, err, &logicalErr)
	require.Len(t, logicalErr.Fails, 1)
	assert.Equal(t, "bad field", logicalErr.Fails[0].Message())
}

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	session := newTestSession(srv.URL, "tok1", time.Now().Add(time.Hour))
	client := NewClient(session, WithRateLimit(testRateLimit))

	_, err := client.Execute(context.Background(), http.MethodGet, "system/info", nil, nil)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestExecute_RateLimitBackoffRecorded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Execute(context.Background(), http.MethodPost, "account/get-account", nil, nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)

	// The limiter should now be inside its backoff window.
	assert.True(t, time.Now().Before(client.limiter.retryAt))
}

func TestBuildURL(t *testing.T) {
	session := newTestSession("https://us-api.example.com", "tok", time.Now().Add(time.Hour))
	client := NewClient(session)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "bare path", path: "account/get-account",
			want: "https://us-api.example.com/api/v2/account/get-account"},
		{name: "leading slash trimmed", path: "/account/get-account",
			want: "https://us-api.example.com/api/v2/account/get-account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.buildURL(tt.path, nil))
		})
	}
}
