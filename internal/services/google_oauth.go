package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/totargaming/stockinfo/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var ErrOAuthNotConfigured = errors.New("google oauth is not configured")

// GoogleOAuthService wraps the OAuth code exchange against Google.
type GoogleOAuthService struct {
	config *oauth2.Config
}

// NewGoogleOAuthService creates the service, or nil when no client id is
// configured so callers can disable the routes.
func NewGoogleOAuthService(cfg *config.Config) *GoogleOAuthService {
	if cfg.GoogleClientID == "" {
		return nil
	}
	return &GoogleOAuthService{
		config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the provider consent page URL for the given state nonce.
func (s *GoogleOAuthService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeProfile trades the callback code for a token and fetches the
// user's profile from the provider.
func (s *GoogleOAuthService) ExchangeProfile(ctx context.Context, code string) (*GoogleProfile, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth code exchange failed: %w", err)
	}

	client := s.config.Client(ctx, token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching oauth profile failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("oauth profile request returned %d: %s", resp.StatusCode, body)
	}

	var raw struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding oauth profile failed: %w", err)
	}
	if raw.ID == "" || raw.Email == "" {
		return nil, fmt.Errorf("oauth profile missing id or email")
	}

	return &GoogleProfile{
		ID:      raw.ID,
		Email:   raw.Email,
		Name:    raw.Name,
		Picture: raw.Picture,
	}, nil
}
