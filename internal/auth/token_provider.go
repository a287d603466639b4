package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	loginPath = "/ecs-deploy/login"

	// refreshMargin is subtracted from a token's expiry when deciding whether to reuse it.
	refreshMargin = 30 * time.Second
)

// ErrLoginFailed is returned when the backend rejects the supplied credentials.
var ErrLoginFailed = errors.New("login rejected by ecs-deploy")

// TokenProviderInterface supplies bearer tokens for outgoing requests.
type TokenProviderInterface interface {
	GetToken(ctx context.Context) (string, error)
	// Invalidate drops any cached token and reports whether the next GetToken can return a different one.
	Invalidate() bool
}

// StaticTokenProvider returns a preconfigured token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a fixed token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// GetToken returns the configured token.
func (p *StaticTokenProvider) GetToken(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", errors.New("no token configured")
	}
	return p.token, nil
}

// Invalidate reports false; a static token cannot be refreshed.
func (p *StaticTokenProvider) Invalidate() bool { return false }

// Credentials are the login and password accepted by the ecs-deploy login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Code   int    `json:"code"`
	Expire string `json:"expire"`
	Token  string `json:"token"`
}

// LoginTokenProvider obtains tokens from the ecs-deploy login endpoint and caches them until they expire.
type LoginTokenProvider struct {
	client      *resty.Client
	credentials Credentials
	logger      *zap.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewLoginTokenProvider initializes a provider that logs in against baseURL.
func NewLoginTokenProvider(baseURL string, credentials Credentials, logger *zap.Logger) *LoginTokenProvider {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	client.SetDisableWarn(true)

	return &LoginTokenProvider{
		client:      client,
		credentials: credentials,
		logger:      logger,
	}
}

// GetToken returns the cached token, logging in again when it is missing or about to expire.
func (p *LoginTokenProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Add(refreshMargin).Before(p.expires) {
		return p.token, nil
	}

	token, expires, err := p.login(ctx)
	if err != nil {
		return "", err
	}
	p.token = token
	p.expires = expires
	p.logger.Debug("obtained ecs-deploy token", zap.Time("expires", expires))
	return p.token, nil
}

// Invalidate drops the cached token so the next GetToken logs in again.
func (p *LoginTokenProvider) Invalidate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expires = time.Time{}
	return true
}

func (p *LoginTokenProvider) login(ctx context.Context) (string, time.Time, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(p.credentials).
		Post(loginPath)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to log in: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", time.Time{}, fmt.Errorf("%w: user %s", ErrLoginFailed, p.credentials.Username)
	default:
		return "", time.Time{}, fmt.Errorf("failed to log in, status code: %d, response: %s", resp.StatusCode(), resp.String())
	}

	var result loginResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse login response: %w", err)
	}
	if result.Token == "" {
		return "", time.Time{}, errors.New("login response did not contain a token")
	}

	expires, err := tokenExpiry(result)
	if err != nil {
		return "", time.Time{}, err
	}
	return result.Token, expires, nil
}

// tokenExpiry prefers the expire field of the login response and falls back to the exp claim.
func tokenExpiry(result loginResponse) (time.Time, error) {
	if result.Expire != "" {
		if expires, err := time.Parse(time.RFC3339, result.Expire); err == nil {
			return expires, nil
		}
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(result.Token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read token expiry: %w", err)
	}
	if exp == nil {
		// no expiry: keep it until the backend rejects it
		return time.Now().Add(24 * time.Hour), nil
	}
	return exp.Time, nil
}
