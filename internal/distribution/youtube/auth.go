package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const DefaultRedirectURL = "http://localhost:8085/callback"

var ErrNoToken = errors.New("no YouTube token, run: reposter auth youtube")

var scopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
}

// Auth holds the OAuth client configuration and the cached token. The token
// is read from tokenPath on first use and written back after consent.
type Auth struct {
	mu        sync.Mutex
	config    *oauth2.Config
	token     *oauth2.Token
	tokenPath string
}

func NewAuth(clientID, clientSecret, tokenPath string) *Auth {
	return &Auth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
			RedirectURL:  DefaultRedirectURL,
		},
		tokenPath: tokenPath,
	}
}

// NewAuthFromSecretsFile builds Auth from a client_secrets.json downloaded
// from the Google Cloud console.
func NewAuthFromSecretsFile(secretsPath, tokenPath string) (*Auth, error) {
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}
	config.RedirectURL = DefaultRedirectURL

	return &Auth{config: config, tokenPath: tokenPath}, nil
}

func (a *Auth) TokenPath() string {
	return a.tokenPath
}

func (a *Auth) LoadToken() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadTokenLocked()
}

func (a *Auth) loadTokenLocked() error {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	a.token = &token
	return nil
}

func (a *Auth) SaveToken() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saveTokenLocked()
}

func (a *Auth) saveTokenLocked() error {
	if a.token == nil {
		return ErrNoToken
	}

	data, err := json.MarshalIndent(a.token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(a.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func (a *Auth) GetAuthURL(state string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *Auth) setRedirectURL(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.RedirectURL = url
}

// Exchange trades an authorization code for a token and persists it.
func (a *Auth) Exchange(ctx context.Context, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	a.token = token
	return a.saveTokenLocked()
}

func (a *Auth) Client(ctx context.Context) (*http.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		if err := a.loadTokenLocked(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
		}
	}

	return a.config.Client(ctx, a.token), nil
}

// IsAuthenticated reports whether uploads can proceed without consent: the
// token is either still valid or refreshable.
func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		if err := a.loadTokenLocked(); err != nil {
			return false
		}
	}
	return a.token != nil && (a.token.Valid() || a.token.RefreshToken != "")
}
