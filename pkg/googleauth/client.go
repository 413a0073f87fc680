package googleauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/logger"
)

var (
	errClientIDRequired     = errors.New("google oauth client id is required")
	errClientSecretRequired = errors.New("google oauth client secret is required")
	errRedirectURLRequired  = errors.New("google oauth redirect url is required")
)

// Profile is the subset of the Google userinfo response the platform needs.
type Profile struct {
	GoogleID      string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

// Exchanger is the surface the auth service consumes, kept small for tests.
type Exchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Client drives the Google OAuth code flow and userinfo lookup.
type Client struct {
	oauth *oauth2.Config
}

// NewClient validates the OAuth config and builds the client.
func NewClient(ctx context.Context, cfg config.GoogleOAuthConfig, logg *logger.Logger) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}
	redirectURL := strings.TrimSpace(cfg.RedirectURL)
	if redirectURL == "" {
		return nil, errRedirectURLRequired
	}

	if logg != nil {
		logg.Info(ctx, "google oauth client initialized")
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
	}, nil
}

// AuthCodeURL returns the Google consent URL carrying the CSRF state.
func (c *Client) AuthCodeURL(state string) string {
	if c == nil || c.oauth == nil {
		return ""
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange swaps the authorization code for a token and fetches the profile.
func (c *Client) Exchange(ctx context.Context, code string) (*Profile, error) {
	if c == nil || c.oauth == nil {
		return nil, errors.New("google oauth client not initialized")
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("authorization code is required")
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(c.oauth.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("build userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return nil, errors.New("userinfo response missing id or email")
	}

	verified := info.VerifiedEmail != nil && *info.VerifiedEmail
	return &Profile{
		GoogleID:      info.Id,
		Email:         info.Email,
		EmailVerified: verified,
		FirstName:     info.GivenName,
		LastName:      info.FamilyName,
	}, nil
}
