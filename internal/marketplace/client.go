// Package marketplace is a typed client for the art marketplace REST API.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/galleria/internal/config"
	"github.com/HerbHall/galleria/internal/version"
)

// Defaults applied by New when Options leaves a field unset.
const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// TokenSource supplies the ID token sent as a bearer credential on owner
// mutations.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

type tokenKey struct{}

// ContextWithToken returns a context whose owner calls authenticate with
// token instead of the client's TokenSource.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; <= 0 disables limiting
	Burst      int
	HTTPClient *http.Client
	Tokens     TokenSource
	Registerer prometheus.Registerer
	Logger     *zap.Logger
}

// Client talks to the marketplace API. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	tokens  TokenSource
	metrics *Metrics
	logger  *zap.Logger
}

// New creates a Client from opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("marketplace: base URL %q must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(opts.Burst, 1)

	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("marketplace metrics: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		tokens:  opts.Tokens,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// NewFromConfig builds a Client from the api.* configuration keys.
func NewFromConfig(cfg config.Config, tokens TokenSource, reg prometheus.Registerer, logger *zap.Logger) (*Client, error) {
	return New(Options{
		BaseURL:    cfg.GetString("api.base_url"),
		Timeout:    cfg.GetDuration("api.timeout"),
		RateLimit:  cfg.GetFloat64("api.rate_limit"),
		Burst:      cfg.GetInt("api.burst"),
		Tokens:     tokens,
		Registerer: reg,
		Logger:     logger,
	})
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTokens returns a copy of c that authenticates with tokens. The copy
// shares the HTTP client, rate limiter and metrics.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// token resolves the bearer token for an authenticated call.
func (c *Client) token(ctx context.Context) (string, error) {
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		return t, nil
	}
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens.Token(ctx)
}

// call describes one API request.
type call struct {
	method   string
	endpoint string // route template used as the metrics label
	path     string // escaped request path
	body     any
	auth     bool
}

// do performs the request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, rc call, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if rc.body != nil {
		b, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", rc.endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.baseURL+rc.path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rc.auth {
		token, err := c.token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	c.metrics.Duration.WithLabelValues(rc.endpoint).Observe(elapsed.Seconds())
	if err != nil {
		c.metrics.Requests.WithLabelValues(rc.endpoint, rc.method, "error").Inc()
		c.logger.Debug("api request failed",
			zap.String("method", rc.method),
			zap.String("path", rc.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return mapError(err)
	}
	defer resp.Body.Close()

	c.metrics.Requests.WithLabelValues(rc.endpoint, rc.method, strconv.Itoa(resp.StatusCode)).Inc()
	c.logger.Debug("api request",
		zap.String("method", rc.method),
		zap.String("path", rc.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.String("request_id", requestID),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(&StatusError{
			StatusCode: resp.StatusCode,
			Method:     rc.method,
			Endpoint:   rc.endpoint,
			Message:    errorMessage(resp.Body),
		})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty response from %s", ErrInvalid, rc.endpoint)
		}
		return fmt.Errorf("decode %s response: %w", rc.endpoint, err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. The API
// answers with {"message": "..."} or {"error": "..."}; anything else is used
// verbatim.
func errorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(b))
}
