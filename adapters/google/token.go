package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/noa-assistant/server/domain/repositories"
)

// TokenManager turns stored integration rows into authenticated HTTP
// clients, refreshing expired access tokens and persisting the result.
type TokenManager struct {
	integrations repositories.IntegrationRepository
	config       *oauth2.Config
	logger       *zap.Logger
}

// NewTokenManager creates a token manager for Google integrations.
func NewTokenManager(integrations repositories.IntegrationRepository, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		integrations: integrations,
		config: &oauth2.Config{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
			Endpoint:     googleoauth.Endpoint,
			Scopes: []string{
				calendar.CalendarScope,
				gmail.GmailReadonlyScope,
			},
		},
		logger: logger,
	}
}

// HTTPClient returns an authenticated client for the user's Google account.
// A missing integration row or a dead refresh token yields an
// unauthenticated ProviderError.
func (m *TokenManager) HTTPClient(ctx context.Context, userID string) (*http.Client, error) {
	token, provider, err := m.loadToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil, repositories.NewProviderError("google", repositories.ErrorKindUnauthenticated,
				fmt.Errorf("access token expired and no refresh token stored"))
		}

		fresh, err := m.config.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, repositories.NewProviderError("google", repositories.ErrorKindUnauthenticated,
				fmt.Errorf("token refresh failed: %w", err))
		}

		if err := m.integrations.UpdateTokens(ctx, userID, provider,
			fresh.AccessToken, fresh.Expiry, time.Now()); err != nil {
			// The refreshed token still works for this request.
			m.logger.Warn("Failed to persist refreshed token",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		token = fresh
	}

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}

// loadToken reads the stored integration, preferring the google provider
// key and falling back to the legacy gmail key.
func (m *TokenManager) loadToken(ctx context.Context, userID string) (*oauth2.Token, string, error) {
	if userID == "" {
		return nil, "", repositories.NewProviderError("google", repositories.ErrorKindUnauthenticated,
			fmt.Errorf("no user for integration lookup"))
	}

	for _, provider := range []string{"google", "gmail"} {
		integration, err := m.integrations.GetByUserAndProvider(ctx, userID, provider)
		if err != nil {
			m.logger.Error("Integration lookup failed",
				zap.String("user_id", userID),
				zap.String("provider", provider),
				zap.Error(err))
			continue
		}
		if integration == nil || integration.AccessToken == "" {
			continue
		}

		return &oauth2.Token{
			AccessToken:  integration.AccessToken,
			RefreshToken: integration.RefreshToken,
			Expiry:       integration.TokenExpiresAt,
			TokenType:    "Bearer",
		}, provider, nil
	}

	return nil, "", repositories.NewProviderError("google", repositories.ErrorKindUnauthenticated,
		fmt.Errorf("no google integration for user"))
}
