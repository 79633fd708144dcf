// Package search — клиент SerpAPI (Google Search) для роли researcher.
//
// Клиент ограничивает частоту запросов (golang.org/x/time/rate), повторяет
// запросы на 429/5xx и классифицирует ошибки для человекочитаемых сообщений.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilkoid/poncho-travel/pkg/config"
	"github.com/ilkoid/poncho-travel/pkg/utils"
	"golang.org/x/time/rate"
)

// Result — один органический результат поиска.
type Result struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source,omitempty"`
}

// serpResponse — нужная нам часть ответа SerpAPI.
type serpResponse struct {
	OrganicResults []Result `json:"organic_results"`
	Error          string   `json:"error"`
}

// ErrorType представляет тип ошибки при работе с SerpAPI.
type ErrorType int

const (
	ErrUnknown ErrorType = iota
	ErrAuthFailed
	ErrTimeout
	ErrNetwork
	ErrRateLimit
	ErrServer
)

// String возвращает строковое представление типа ошибки.
func (e ErrorType) String() string {
	switch e {
	case ErrAuthFailed:
		return "authentication_failed"
	case ErrTimeout:
		return "timeout"
	case ErrNetwork:
		return "network_error"
	case ErrRateLimit:
		return "rate_limit"
	case ErrServer:
		return "server_error"
	default:
		return "unknown"
	}
}

// HumanMessage возвращает человекочитаемое сообщение для типа ошибки.
func (e ErrorType) HumanMessage() string {
	switch e {
	case ErrAuthFailed:
		return "SerpAPI key is invalid or missing. Check SERPAPI_API_KEY."
	case ErrTimeout:
		return "Search request timed out."
	case ErrNetwork:
		return "Search service is unreachable. Check your internet connection."
	case ErrRateLimit:
		return "Search rate limit exceeded. Wait before the next attempt."
	case ErrServer:
		return "Search service returned a server error."
	default:
		return "Unknown error while calling the search service."
	}
}

// APIError — неуспешный HTTP ответ SerpAPI.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("serpapi error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("serpapi error: status %d: %s", e.StatusCode, e.Message)
}

// HTTPClient интерфейс для выполнения HTTP запросов.
//
// Позволяет подменить транспорт в тестах. *http.Client реализует его.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client — SerpAPI клиент с rate limiting и retry.
type Client struct {
	apiKey        string
	baseURL       string
	engine        string
	resultsLimit  int
	retryAttempts int
	retryDelay    time.Duration

	httpClient HTTPClient
	limiter    *rate.Limiter
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент.
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryDelay задаёт базовую паузу между повторами (удваивается).
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewFromConfig создаёт клиент из секции search конфигурации.
func NewFromConfig(cfg config.SearchConfig, opts ...Option) (*Client, error) {
	cfg = cfg.GetDefaults()
	if cfg.APIKey == "" {
		return nil, &config.CredentialError{Var: cfg.APIKeyEnv, Purpose: "search"}
	}

	// rateLimit в запросах/минуту → rate.Limit в запросах/секунду
	ratePerSec := float64(cfg.RateLimit) / 60.0

	c := &Client{
		apiKey:        cfg.APIKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		engine:        cfg.Engine,
		resultsLimit:  cfg.ResultsLimit,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    time.Second,
		httpClient:    &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), cfg.BurstLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ResultsLimit — сколько результатов отдаётся по умолчанию.
func (c *Client) ResultsLimit() int {
	return c.resultsLimit
}

// Search выполняет запрос и возвращает органические результаты.
//
// num <= 0 означает лимит из конфигурации. Пустая выдача — не ошибка.
func (c *Client) Search(ctx context.Context, query string, num int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if num <= 0 || num > c.resultsLimit {
		num = c.resultsLimit
	}

	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(num))
	reqURL := c.baseURL + "/search.json?" + params.Encode()

	start := time.Now()
	var resp serpResponse
	if err := c.doRequest(ctx, reqURL, &resp); err != nil {
		utils.Error("Search request failed",
			"query", query,
			"error_type", c.ClassifyError(err).String(),
			"error", err)
		return nil, err
	}

	results := resp.OrganicResults
	if len(results) > num {
		results = results[:num]
	}

	utils.Debug("Search completed",
		"query", query,
		"results", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	return results, nil
}

// doRequest выполняет GET запрос с retry логикой и rate limiting.
func (c *Client) doRequest(ctx context.Context, reqURL string, dest *serpResponse) error {
	var lastErr error
	delay := c.retryDelay

	attempts := c.retryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		// Ждем разрешения от лимитера (блокирует, если превысили лимит)
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		retry, err := c.once(ctx, reqURL, dest)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		utils.Warn("Search request retry", "attempt", i+1, "error", err)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// once — одна попытка. retry=true для сетевых ошибок, 429 и 5xx.
func (c *Client) once(ctx context.Context, reqURL string, dest *serpResponse) (retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retryable, apiErr
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("unmarshal error: %w", err)
	}

	// SerpAPI отвечает 200 с полем error, когда Google ничего не нашёл
	if dest.Error != "" && len(dest.OrganicResults) == 0 {
		utils.Debug("Search returned no results", "reason", dest.Error)
	}
	return false, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// ClassifyError классифицирует ошибку для человекочитаемого сообщения.
func (c *Client) ClassifyError(err error) ErrorType {
	return ClassifyError(err)
}

// ClassifyError определяет тип ошибки поиска.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return ErrRateLimit
		case apiErr.StatusCode >= 500:
			return ErrServer
		}
		return ErrUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "timeout"):
		return ErrTimeout
	case strings.Contains(errMsg, "connection refused"), strings.Contains(errMsg, "no such host"):
		return ErrNetwork
	}
	return ErrUnknown
}
