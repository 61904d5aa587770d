package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// OAuthProvider holds the configuration for an OAuth2 identity provider.
type OAuthProvider struct {
	Name        string
	UserInfoURL string

	config *oauth2.Config
}

// NewGoogleProvider returns an OAuth2 configuration for Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Name:        "google",
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
			RedirectURL:  redirectURL,
		},
	}
}

// NewMicrosoftProvider returns an OAuth2 configuration for Microsoft
// (common endpoint, covering both work and personal accounts).
func NewMicrosoftProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Name:        "microsoft",
		UserInfoURL: "https://graph.microsoft.com/v1.0/me",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			RedirectURL:  redirectURL,
		},
	}
}

// AuthorizationURL returns the OAuth2 authorization URL with the given state parameter.
func (p *OAuthProvider) AuthorizationURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for tokens and fetches user
// info. Returns the provider-side user ID, email, display name, and avatar URL.
func (p *OAuthProvider) ExchangeCode(ctx context.Context, code string) (providerID, email, name, avatarURL string, err error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", "", "", "", fmt.Errorf("auth.ExchangeCode: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.UserInfoURL)
	if err != nil {
		return "", "", "", "", fmt.Errorf("auth.ExchangeCode: fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", "", "", fmt.Errorf("auth.ExchangeCode: user info returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", "", "", fmt.Errorf("auth.ExchangeCode: reading user info: %w", err)
	}

	switch p.Name {
	case "google":
		return parseGoogleUserInfo(body)
	case "microsoft":
		return parseMicrosoftUserInfo(body)
	default:
		return "", "", "", "", fmt.Errorf("auth.ExchangeCode: unsupported provider %q", p.Name)
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func parseGoogleUserInfo(body []byte) (string, string, string, string, error) {
	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", "", "", fmt.Errorf("auth.parseGoogleUserInfo: %w", err)
	}
	return info.ID, info.Email, info.Name, info.Picture, nil
}

type microsoftUserInfo struct {
	ID                string `json:"id"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
	DisplayName       string `json:"displayName"`
}

func parseMicrosoftUserInfo(body []byte) (string, string, string, string, error) {
	var info microsoftUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", "", "", "", fmt.Errorf("auth.parseMicrosoftUserInfo: %w", err)
	}
	email := info.Mail
	if email == "" {
		email = info.UserPrincipalName
	}
	return info.ID, email, info.DisplayName, "", nil
}
