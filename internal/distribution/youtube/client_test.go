package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func writeToken(t *testing.T, path string, token *oauth2.Token) {
	t.Helper()
	data, _ := json.Marshal(token)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
}

func TestNewAuth(t *testing.T) {
	auth := NewAuth("client-id", "client-secret", "/tmp/token.json")

	if auth == nil {
		t.Fatal("NewAuth() returned nil")
	}
	if auth.config.ClientID != "client-id" {
		t.Errorf("ClientID = %q, want %q", auth.config.ClientID, "client-id")
	}
	if auth.config.ClientSecret != "client-secret" {
		t.Errorf("ClientSecret = %q, want %q", auth.config.ClientSecret, "client-secret")
	}
	if auth.config.RedirectURL != DefaultRedirectURL {
		t.Errorf("RedirectURL = %q, want %q", auth.config.RedirectURL, DefaultRedirectURL)
	}
	if auth.TokenPath() != "/tmp/token.json" {
		t.Errorf("TokenPath() = %q, want %q", auth.TokenPath(), "/tmp/token.json")
	}
}

func TestNewAuthFromSecretsFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  string
		wantErr bool
	}{
		{
			name:    "installedApp",
			content: `{"installed":{"client_id":"file-id","client_secret":"file-secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`,
			wantID:  "file-id",
		},
		{
			name:    "invalidJSON",
			content: "nope",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "client_secrets.json")
			_ = os.WriteFile(path, []byte(tt.content), 0600)

			auth, err := NewAuthFromSecretsFile(path, "token.json")
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAuthFromSecretsFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if auth.config.ClientID != tt.wantID {
				t.Errorf("ClientID = %q, want %q", auth.config.ClientID, tt.wantID)
			}
			if auth.config.RedirectURL != DefaultRedirectURL {
				t.Errorf("RedirectURL = %q, want %q", auth.config.RedirectURL, DefaultRedirectURL)
			}
		})
	}

	if _, err := NewAuthFromSecretsFile(filepath.Join(t.TempDir(), "missing.json"), "t"); err == nil {
		t.Error("NewAuthFromSecretsFile() should fail for a missing file")
	}
}

func TestAuthGetAuthURL(t *testing.T) {
	auth := NewAuth("client-id", "client-secret", "/tmp/token.json")
	authURL := auth.GetAuthURL("state-123")

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("GetAuthURL() returned unparsable URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q, want state-123", q.Get("state"))
	}
	if q.Get("access_type") != "offline" {
		t.Errorf("access_type = %q, want offline", q.Get("access_type"))
	}
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q, want client-id", q.Get("client_id"))
	}
}

func TestAuthLoadToken(t *testing.T) {
	tests := []struct {
		name      string
		token     *oauth2.Token
		wantErr   bool
		setupFunc func(t *testing.T, path string)
	}{
		{
			name: "validToken",
			token: &oauth2.Token{
				AccessToken:  "test-access-token",
				TokenType:    "Bearer",
				RefreshToken: "test-refresh-token",
				Expiry:       time.Now().Add(time.Hour),
			},
		},
		{
			name:      "missingFile",
			wantErr:   true,
			setupFunc: func(t *testing.T, path string) {},
		},
		{
			name:    "invalidJSON",
			wantErr: true,
			setupFunc: func(t *testing.T, path string) {
				_ = os.WriteFile(path, []byte("not valid json"), 0600)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenPath := filepath.Join(t.TempDir(), "token.json")

			if tt.token != nil {
				writeToken(t, tokenPath, tt.token)
			} else if tt.setupFunc != nil {
				tt.setupFunc(t, tokenPath)
			}

			auth := NewAuth("id", "secret", tokenPath)
			err := auth.LoadToken()

			if (err != nil) != tt.wantErr {
				t.Errorf("LoadToken() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && auth.token == nil {
				t.Error("LoadToken() did not set token")
			}
		})
	}
}

func TestAuthSaveToken(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	auth := NewAuth("id", "secret", tokenPath)
	auth.token = &oauth2.Token{
		AccessToken:  "save-test-token",
		TokenType:    "Bearer",
		RefreshToken: "save-refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}

	if err := auth.SaveToken(); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("failed to stat saved token: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token mode = %v, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(tokenPath)
	var saved oauth2.Token
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("failed to unmarshal saved token: %v", err)
	}
	if saved.AccessToken != "save-test-token" {
		t.Errorf("saved AccessToken = %q, want save-test-token", saved.AccessToken)
	}
}

func TestAuthSaveTokenErrors(t *testing.T) {
	auth := NewAuth("id", "secret", "/nonexistent/dir/token.json")
	if err := auth.SaveToken(); !errors.Is(err, ErrNoToken) {
		t.Errorf("SaveToken() without token error = %v, want ErrNoToken", err)
	}

	auth.token = &oauth2.Token{AccessToken: "test"}
	if err := auth.SaveToken(); err == nil {
		t.Error("SaveToken() should return error for invalid path")
	}
}

func TestAuthIsAuthenticated(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
		want  bool
	}{
		{name: "noToken", want: false},
		{
			name:  "validToken",
			token: &oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)},
			want:  true,
		},
		{
			name:  "expiredToken",
			token: &oauth2.Token{AccessToken: "expired", Expiry: time.Now().Add(-time.Hour)},
			want:  false,
		},
		{
			name:  "expiredButRefreshable",
			token: &oauth2.Token{AccessToken: "expired", RefreshToken: "r", Expiry: time.Now().Add(-time.Hour)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"))
			auth.token = tt.token

			if got := auth.IsAuthenticated(); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthIsAuthenticatedFromFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, tokenPath, &oauth2.Token{AccessToken: "file-token", Expiry: time.Now().Add(time.Hour)})

	auth := NewAuth("id", "secret", tokenPath)
	if !auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = false, want true with token file present")
	}
}

func TestAuthClient(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T, auth *Auth, path string)
		wantErr   bool
	}{
		{
			name: "withExistingToken",
			setupFunc: func(t *testing.T, auth *Auth, path string) {
				auth.token = &oauth2.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}
			},
		},
		{
			name: "loadTokenFromFile",
			setupFunc: func(t *testing.T, auth *Auth, path string) {
				writeToken(t, path, &oauth2.Token{AccessToken: "file-token", Expiry: time.Now().Add(time.Hour)})
			},
		},
		{
			name:      "noTokenAvailable",
			setupFunc: func(t *testing.T, auth *Auth, path string) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenPath := filepath.Join(t.TempDir(), "token.json")
			auth := NewAuth("id", "secret", tokenPath)
			tt.setupFunc(t, auth, tokenPath)

			client, err := auth.Client(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Client() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, ErrNoToken) {
				t.Errorf("Client() error = %v, want ErrNoToken", err)
			}
			if !tt.wantErr && client == nil {
				t.Error("Client() returned nil client")
			}
		})
	}
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"new-token","token_type":"Bearer","refresh_token":"new-refresh","expires_in":3600}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func callback(t *testing.T, authURL string, params url.Values) {
	t.Helper()
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Errorf("bad auth URL: %v", err)
		return
	}
	redirect := strings.Replace(parsed.Query().Get("redirect_uri"), "localhost", "127.0.0.1", 1)
	if params.Get("state") == "" {
		params.Set("state", parsed.Query().Get("state"))
	}

	resp, err := http.Get(redirect + "?" + params.Encode())
	if err != nil {
		t.Errorf("callback request failed: %v", err)
		return
	}
	_ = resp.Body.Close()
}

func newTestConsent(t *testing.T, auth *Auth, open func(string) error) *Consent {
	t.Helper()
	c := NewConsent(auth, nil)
	c.addr = "127.0.0.1:0"
	c.timeout = 5 * time.Second
	c.openURL = open
	return c
}

func TestConsentRun(t *testing.T) {
	tokenServer := newTokenServer(t)
	tokenPath := filepath.Join(t.TempDir(), "token.json")

	auth := NewAuth("id", "secret", tokenPath)
	auth.config.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}

	var prompted string
	c := newTestConsent(t, auth, func(authURL string) error {
		callback(t, authURL, url.Values{"code": {"auth-code"}})
		return nil
	})
	c.prompt = func(authURL string) { prompted = authURL }

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if prompted == "" {
		t.Error("prompt was not called with the consent URL")
	}
	if !auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after consent")
	}
	if _, err := os.Stat(tokenPath); err != nil {
		t.Errorf("token file not written: %v", err)
	}
}

func TestConsentRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{name: "stateMismatch", params: url.Values{"code": {"c"}, "state": {"forged"}}},
		{name: "accessDenied", params: url.Values{"error": {"access_denied"}}},
		{name: "missingCode", params: url.Values{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"))
			c := newTestConsent(t, auth, func(authURL string) error {
				callback(t, authURL, tt.params)
				return nil
			})

			if err := c.Run(context.Background()); err == nil {
				t.Error("Run() should fail")
			}
			if auth.IsAuthenticated() {
				t.Error("IsAuthenticated() = true after failed consent")
			}
		})
	}
}

func TestConsentRunTimeout(t *testing.T) {
	auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"))
	c := newTestConsent(t, auth, func(string) error { return nil })
	c.timeout = 50 * time.Millisecond

	if err := c.Run(context.Background()); !errors.Is(err, ErrConsentTimeout) {
		t.Errorf("Run() error = %v, want ErrConsentTimeout", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	auth := NewAuth("id", "secret", "/tmp/token.json")
	client := NewClient(auth, nil, "")

	if client.auth != auth {
		t.Error("client.auth is not the given auth")
	}
	if client.categoryID != DefaultCategoryID {
		t.Errorf("categoryID = %q, want %q", client.categoryID, DefaultCategoryID)
	}
	if len(client.tags) != 1 || client.tags[0] != "Short" {
		t.Errorf("tags = %v, want [Short]", client.tags)
	}
}

func TestBuildVideo(t *testing.T) {
	client := NewClient(nil, nil, "")
	client.now = func() time.Time { return time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC) }

	tests := []struct {
		name        string
		req         PublishRequest
		wantTitle   string
		wantPrivacy string
	}{
		{
			name:        "explicitTitle",
			req:         PublishRequest{Title: "Short 1", Visibility: "public"},
			wantTitle:   "Short 1",
			wantPrivacy: "public",
		},
		{
			name:        "emptyTitleFallsBack",
			req:         PublishRequest{Title: "  "},
			wantTitle:   "Short - 2025-04-05 06:07:08",
			wantPrivacy: "private",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			video := client.buildVideo(tt.req)
			if video.Snippet.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", video.Snippet.Title, tt.wantTitle)
			}
			if video.Status.PrivacyStatus != tt.wantPrivacy {
				t.Errorf("PrivacyStatus = %q, want %q", video.Status.PrivacyStatus, tt.wantPrivacy)
			}
			if video.Snippet.CategoryId != "22" {
				t.Errorf("CategoryId = %q, want 22", video.Snippet.CategoryId)
			}
			if video.Status.SelfDeclaredMadeForKids {
				t.Error("SelfDeclaredMadeForKids = true, want false")
			}
		})
	}
}

func TestClientPublishNoAuth(t *testing.T) {
	auth := NewAuth("id", "secret", filepath.Join(t.TempDir(), "token.json"))
	client := NewClient(auth, nil, "")

	_, err := client.Publish(context.Background(), PublishRequest{FilePath: "/tmp/test.mp4", Title: "Test"})
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("Publish() error = %v, want ErrNoToken", err)
	}
}

func TestClientPublishBadFile(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, tokenPath, &oauth2.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)})

	client := NewClient(NewAuth("id", "secret", tokenPath), nil, "")

	_, err := client.Publish(context.Background(), PublishRequest{FilePath: "/nonexistent/video.mp4", Title: "Test"})
	if err == nil {
		t.Error("Publish() should fail with nonexistent file")
	}
}

func TestClientPublish(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
		auth string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		auth = r.Header.Get("Authorization")
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"vid123","kind":"youtube#video"}`)
	}))
	defer server.Close()

	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.json")
	writeToken(t, tokenPath, &oauth2.Token{AccessToken: "test-token", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)})

	videoPath := filepath.Join(dir, "video.mp4")
	_ = os.WriteFile(videoPath, []byte("fake video bytes"), 0644)

	client := NewClient(NewAuth("id", "secret", tokenPath), nil, "")
	client.endpoint = server.URL + "/"

	id, err := client.Publish(context.Background(), PublishRequest{
		FilePath:    videoPath,
		Title:       "My Short",
		Description: "desc",
		Visibility:  "public",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "vid123" {
		t.Errorf("Publish() = %q, want vid123", id)
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer test-token" {
		t.Errorf("Authorization = %q, want Bearer test-token", auth)
	}
	for _, want := range []string{`"title":"My Short"`, `"categoryId":"22"`, `"privacyStatus":"public"`, `"Short"`} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %s", want)
		}
	}
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != "https://youtube.com/shorts/abc" {
		t.Errorf("WatchURL() = %q", got)
	}
}
