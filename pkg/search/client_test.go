package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parisResponse = `{
  "search_metadata": {"status": "Success"},
  "organic_results": [
    {"position": 1, "title": "Eiffel Tower tour", "link": "https://example.com/eiffel", "snippet": "Skip the line", "source": "example.com"},
    {"position": 2, "title": "Louvre visit", "link": "https://example.com/louvre", "snippet": "Mona Lisa"},
    {"position": 3, "title": "Seine cruise", "link": "https://example.com/seine", "snippet": "Evening cruise"}
  ]
}`

func newTestClient(t *testing.T, srv *httptest.Server, mutate func(*config.SearchConfig)) *Client {
	t.Helper()
	cfg := config.SearchConfig{
		APIKey:        "serp-key",
		BaseURL:       srv.URL,
		RateLimit:     6000,
		BurstLimit:    10,
		RetryAttempts: 3,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := NewFromConfig(cfg, WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	return c
}

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "google", q.Get("engine"))
		assert.Equal(t, "Paris attractions", q.Get("q"))
		assert.Equal(t, "serp-key", q.Get("api_key"))
		assert.Equal(t, "2", q.Get("num"))
		_, _ = w.Write([]byte(parisResponse))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	results, err := c.Search(context.Background(), "  Paris attractions ", 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Eiffel Tower tour", results[0].Title)
	assert.Equal(t, "https://example.com/louvre", results[1].Link)
}

func TestSearch_EmptyQuery(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).Search(context.Background(), "   ", 0)
	assert.ErrorContains(t, err, "empty")
}

func TestSearch_NoResultsIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Google hasn't returned any results for this query."}`))
	}))
	defer srv.Close()

	results, err := newTestClient(t, srv, nil).Search(context.Background(), "zzzz", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RetriesOnRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		_, _ = w.Write([]byte(parisResponse))
	}))
	defer srv.Close()

	results, err := newTestClient(t, srv, nil).Search(context.Background(), "Paris", 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestSearch_AuthErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).Search(context.Background(), "Paris", 0)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, ErrAuthFailed, ClassifyError(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid API key.", apiErr.Message)
}

func TestSearch_ServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, func(c *config.SearchConfig) { c.RetryAttempts = 2 }).
		Search(context.Background(), "Paris", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, ErrServer, ClassifyError(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestNewFromConfig_MissingKey(t *testing.T) {
	_, err := NewFromConfig(config.SearchConfig{})
	require.Error(t, err)
	assert.True(t, config.IsCredentialError(err))
	assert.Equal(t, "Please set your SERPAPI_API_KEY environment variable.", err.Error())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrUnknown},
		{&APIError{StatusCode: 403}, ErrAuthFailed},
		{&APIError{StatusCode: 429}, ErrRateLimit},
		{&APIError{StatusCode: 503}, ErrServer},
		{&APIError{StatusCode: 400}, ErrUnknown},
		{context.DeadlineExceeded, ErrTimeout},
		{errors.New("dial tcp: connection refused"), ErrNetwork},
		{errors.New("boom"), ErrUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
		assert.NotEmpty(t, tt.want.HumanMessage())
	}
}
