package paypack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// tokens are treated as expired this long before the provider says so
	tokenSafetyMargin = 300 * time.Second
	// used when the provider omits expires_in
	defaultTokenTTL = time.Hour
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Credentials struct {
	ClientID     string
	ClientSecret string
}

// TokenCache holds one provider bearer token for the whole process.
type TokenCache struct {
	baseURL string
	creds   Credentials
	http    *http.Client
	clock   Clock
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	token  string
	expiry time.Time

	refresh singleflight.Group
}

type TokenCacheOption func(*TokenCache)

func WithClock(c Clock) TokenCacheOption {
	return func(tc *TokenCache) { tc.clock = c }
}

func WithHTTPClient(h *http.Client) TokenCacheOption {
	return func(tc *TokenCache) { tc.http = h }
}

func WithAuthTimeout(d time.Duration) TokenCacheOption {
	return func(tc *TokenCache) { tc.timeout = d }
}

func NewTokenCache(baseURL string, creds Credentials, logger *zap.Logger, opts ...TokenCacheOption) *TokenCache {
	tc := &TokenCache{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		http:    http.DefaultClient,
		clock:   systemClock{},
		timeout: 10 * time.Second,
		logger:  logger.With(zap.String("component", "paypack_token_cache")),
	}
	for _, o := range opts {
		o(tc)
	}
	return tc
}

// Token returns the cached token, fetching a new one when it is missing or expired.
// Concurrent refreshes share a single upstream call.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	if tok, ok := tc.cached(); ok {
		return tok, nil
	}

	ch := tc.refresh.DoChan("token", func() (interface{}, error) {
		// another caller may have refreshed while we waited
		if tok, ok := tc.cached(); ok {
			return tok, nil
		}
		return tc.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.token = ""
	tc.expiry = time.Time{}
	tc.mu.Unlock()
}

// Expiry reports the instant after which the cached token is refreshed.
func (tc *TokenCache) Expiry() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.expiry
}

func (tc *TokenCache) cached() (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if tc.token != "" && tc.clock.Now().Before(tc.expiry) {
		return tc.token, true
	}
	return "", false
}

func (tc *TokenCache) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, tc.timeout)
	defer cancel()

	payload, err := json.Marshal(tokenRequest{ClientID: tc.creds.ClientID, ClientSecret: tc.creds.ClientSecret})
	if err != nil {
		return "", &AuthError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.baseURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := tc.http.Do(req)
	if err != nil {
		tc.Invalidate()
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		tc.Invalidate()
		return "", &AuthError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tc.Invalidate()
		tc.logger.Warn("token request rejected", zap.Int("status", resp.StatusCode))
		return "", &AuthError{Status: resp.StatusCode, Body: truncateBody(body)}
	}

	fields, err := DecodeFields(body)
	if err != nil {
		tc.Invalidate()
		return "", &AuthError{Status: resp.StatusCode, Body: truncateBody(body), Err: fmt.Errorf("decode token response: %w", err)}
	}
	token := fields.token()
	if token == "" {
		tc.Invalidate()
		return "", &AuthError{Status: resp.StatusCode, Body: truncateBody(body), Err: fmt.Errorf("token missing in response")}
	}

	ttl := defaultTokenTTL
	if s := fields.expiresIn(); s > 0 {
		ttl = time.Duration(s) * time.Second
	}
	expiry := tc.clock.Now().Add(ttl - tokenSafetyMargin)

	tc.mu.Lock()
	tc.token = token
	tc.expiry = expiry
	tc.mu.Unlock()

	tc.logger.Debug("token refreshed", zap.Time("expiry", expiry))
	return token, nil
}
