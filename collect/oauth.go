package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jyothri/fetchflow/db"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var (
	ErrNoAccessToken = errors.New("no access token stored")
	ErrTokenExpired  = errors.New("access token expired and no refresh token stored")
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Used when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

var Scopes = []string{
	gmail.GmailReadonlyScope,
	drive.DriveMetadataReadonlyScope,
	drive.DriveFileScope,
}

// TokenStore persists a refreshed credential.
type TokenStore interface {
	UpdateUserTokens(ctx context.Context, email string, accessToken string, refreshToken string, expiresAt time.Time) error
}

// Google talks to the OAuth token endpoint and the Gmail and Drive APIs on
// behalf of one stored user credential at a time.
type Google struct {
	config     *oauth2.Config
	apiOptions []option.ClientOption
	limit      rate.Limit
	burst      int
	now        func() time.Time
}

type Option func(*Google)

// WithTokenURL points token exchange and refresh at another endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(g *Google) {
		g.config.Endpoint.TokenURL = tokenURL
	}
}

// WithAPIOptions appends client options to every Gmail and Drive service.
func WithAPIOptions(opts ...option.ClientOption) Option {
	return func(g *Google) {
		g.apiOptions = append(g.apiOptions, opts...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Google) {
		g.now = now
	}
}

// WithRateLimit throttles the per-label detail calls of one listing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(g *Google) {
		g.limit = limit
		g.burst = burst
	}
}

func NewGoogle(clientId string, clientSecret string, opts ...Option) *Google {
	g := &Google{
		config: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       Scopes,
		},
		limit: 50,
		burst: 5,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Exchange trades an authorization code for tokens.
func (g *Google) Exchange(ctx context.Context, code string, redirectURL string) (*oauth2.Token, error) {
	cfg := *g.config
	cfg.RedirectURL = redirectURL
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// RefreshUserToken obtains a new access token for email and persists it
// with exactly one store write. The stored refresh token is only replaced
// when the provider rotated it.
func (g *Google) RefreshUserToken(ctx context.Context, store TokenStore, email string, refreshToken string) (string, error) {
	slog.Info("Refreshing token", "email", email)

	// An empty access token forces the refresh grant.
	tokenSource := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Error("Token refresh failed", "email", email, "error", err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	newRefreshToken := token.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = g.now().Add(defaultTokenLifetime)
	}

	if err := store.UpdateUserTokens(ctx, email, token.AccessToken, newRefreshToken, expiresAt); err != nil {
		slog.Error("Failed to persist refreshed tokens", "email", email, "error", err)
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	slog.Info("Successfully refreshed and updated tokens", "email", email, "expires_at", expiresAt)
	return token.AccessToken, nil
}

// AccessToken returns a usable access token for user, refreshing it when
// the stored expiry is at or before now.
func (g *Google) AccessToken(ctx context.Context, store TokenStore, user *db.User) (string, error) {
	if !user.AccessToken.Valid || user.AccessToken.String == "" {
		return "", ErrNoAccessToken
	}
	if !user.TokenExpiresAt.Valid || user.TokenExpiresAt.Time.After(g.now()) {
		return user.AccessToken.String, nil
	}
	if !user.RefreshToken.Valid || user.RefreshToken.String == "" {
		return "", ErrTokenExpired
	}
	return g.RefreshUserToken(ctx, store, user.Email, user.RefreshToken.String)
}

func (g *Google) clientOptions(accessToken string) []option.ClientOption {
	tokenSrc := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	opts := []option.ClientOption{option.WithTokenSource(tokenSrc)}
	return append(opts, g.apiOptions...)
}
