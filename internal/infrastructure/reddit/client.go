package reddit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"RedditScanner/internal/domain"
)

const (
	defaultRequestsPerMinute = 60
	defaultBurst             = 10
	tokenRefreshMargin       = time.Minute
	maxErrorBody             = 512
)

// RateLimit throttles requests before they reach Reddit.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

// APIError is a non-2xx response that is neither an auth, forbidden nor not-found failure.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client performs authenticated, rate limited calls against the OAuth API host.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	auth       *Authenticator
	limiter    *rate.Limiter
	logger     *slog.Logger

	mu         sync.Mutex
	token      string
	expiresAt  time.Time
	pauseUntil time.Time
}

// NewClient wires an HTTP client against baseURL. auth may be nil when token is static.
func NewClient(httpClient *http.Client, baseURL, userAgent string, auth *Authenticator, limit RateLimit, logger *slog.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    parsed,
		userAgent:  userAgent,
		auth:       auth,
		limiter:    buildLimiter(limit),
		logger:     logger,
	}, nil
}

// SetToken installs a bearer token that never expires.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// EnsureToken fetches a token when none is cached or the cached one is about to expire.
func (c *Client) EnsureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.Unlock()

	if token != "" && (expiresAt.IsZero() || time.Until(expiresAt) > tokenRefreshMargin) {
		return token, nil
	}
	if c.auth == nil {
		return "", &domain.AuthError{Message: "no access token and no authenticator configured"}
	}

	grant, err := c.auth.Token(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = grant.AccessToken
	c.expiresAt = grant.ExpiresAt
	c.mu.Unlock()

	c.debug("access token refreshed", "expires_at", grant.ExpiresAt)
	return grant.AccessToken, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, form)
}

func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) ([]byte, error) {
	token, err := c.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	u, err := c.baseURL.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("build url %s: %w", path, err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	c.debug("reddit request", "method", method, "path", u.Path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	c.applyRateHeaders(resp.Header)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := statusError(method, u.Path, resp.StatusCode, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func statusError(method, path string, status int, payload []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return &domain.AuthError{StatusCode: status, Message: "invalid credentials, please check them in the config file"}
	case status == http.StatusForbidden:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrForbidden)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	}

	body := string(payload)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &APIError{Method: method, Path: path, StatusCode: status, Body: body}
}

func buildLimiter(cfg RateLimit) *rate.Limiter {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultRequestsPerMinute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(perMinute/60.0), burst)
}

func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	until := c.pauseUntil
	c.mu.Unlock()

	if delay := time.Until(until); delay > 0 {
		c.debug("server asked to slow down", "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return c.limiter.Wait(ctx)
}

// applyRateHeaders honours Retry-After and pauses once the X-Ratelimit budget is spent.
func (c *Client) applyRateHeaders(h http.Header) {
	var delay time.Duration

	if v := h.Get("Retry-After"); v != "" {
		if seconds, err := strconv.ParseFloat(v, 64); err == nil && seconds > 0 {
			delay = time.Duration(seconds * float64(time.Second))
		}
	}

	remaining, rErr := strconv.ParseFloat(h.Get("X-Ratelimit-Remaining"), 64)
	reset, sErr := strconv.ParseFloat(h.Get("X-Ratelimit-Reset"), 64)
	if rErr == nil && sErr == nil && remaining < 1 && reset > 0 {
		if d := time.Duration(reset * float64(time.Second)); d > delay {
			delay = d
		}
	}

	if delay <= 0 {
		return
	}

	c.mu.Lock()
	if until := time.Now().Add(delay); until.After(c.pauseUntil) {
		c.pauseUntil = until
	}
	c.mu.Unlock()
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
