package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"fitdash/internal/metrics"
)

// refreshBuffer is how long before expiry a token is refreshed
const refreshBuffer = 60 * time.Second

// TokenStore persists refreshed tokens
type TokenStore interface {
	UpdateTokens(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) error
}

// TokenSource refreshes the Strava token shortly before it expires and
// writes every new token back to the store
type TokenSource struct {
	config *oauth2.Config
	store  TokenStore
	log    *slog.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenSource creates a TokenSource seeded with token
func NewTokenSource(cfg *oauth2.Config, token *oauth2.Token, st TokenStore, log *slog.Logger) *TokenSource {
	if log == nil {
		log = slog.Default()
	}
	return &TokenSource{
		config: cfg,
		token:  token,
		store:  st,
		log:    log,
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if time.Until(ts.token.Expiry) > refreshBuffer {
		return ts.token, nil
	}

	ctx := context.Background()
	newToken, err := ts.config.TokenSource(ctx, ts.token).Token()
	if err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpRefreshToken, "error").Inc()
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	metrics.StravaAPIRequestsTotal.WithLabelValues(metrics.OpRefreshToken, "200").Inc()

	if err := ts.store.UpdateTokens(ctx, newToken.AccessToken, newToken.RefreshToken, newToken.Expiry); err != nil {
		return nil, fmt.Errorf("saving refreshed token: %w", err)
	}
	ts.log.Info("refreshed strava token", "expires_at", newToken.Expiry)

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or will expire within the buffer
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return time.Until(ts.token.Expiry) <= refreshBuffer
}
