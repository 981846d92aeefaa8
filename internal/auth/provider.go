package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Tokens is what the identity provider returns on sign-up and sign-in.
type Tokens struct {
	UserID       string `json:"localId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

// Provider is an opaque identity provider.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Tokens, error)
	SignIn(ctx context.Context, email, password string) (*Tokens, error)
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Tokens, error)
	SignOut(ctx context.Context, idToken string) error
}

// Compile-time interface guard.
var _ Provider = (*HTTPProvider)(nil)

// HTTPProvider talks to an accounts:* style REST identity service.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPProvider creates a provider rooted at baseURL. apiKey, when set, is
// sent as the key query parameter.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string) (*Tokens, error) {
	return p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Tokens, error) {
	return p.post(ctx, "accounts:signIn", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
}

func (p *HTTPProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Tokens, error) {
	return p.post(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"photoUrl":          photoURL,
		"returnSecureToken": true,
	})
}

// SignOut has no remote call; the session is discarded locally.
func (p *HTTPProvider) SignOut(context.Context, string) error {
	return nil
}

func (p *HTTPProvider) post(ctx context.Context, op string, body any) (*Tokens, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("auth: no identity provider configured (set auth.base_url)")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op, err)
	}

	u := p.baseURL + "/" + op
	if p.apiKey != "" {
		u += "?" + url.Values{"key": {p.apiKey}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		p.logger.Debug("identity provider rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
		return nil, providerError(op, resp.StatusCode, raw)
	}

	var t Tokens
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", op, err)
	}
	if t.IDToken == "" {
		return nil, fmt.Errorf("auth %s: %w: empty token", op, ErrInvalidToken)
	}
	return &t, nil
}

// providerError maps the provider's error codes onto package sentinels.
func providerError(op string, status int, raw []byte) error {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(raw, &payload)
	code := payload.Error.Message
	// Codes may carry a detail suffix, e.g. "WEAK_PASSWORD : Password should be ...".
	if i := strings.Index(code, " "); i > 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL":
		return ErrInvalidEmail
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED", "USER_NOT_FOUND":
		return ErrSessionExpired
	}
	if code == "" {
		code = http.StatusText(status)
	}
	return fmt.Errorf("auth %s: provider returned %d %s", op, status, code)
}
