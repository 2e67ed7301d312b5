package openproject

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authentication modes.
const (
	AuthAPIKey = "apikey"
	AuthOAuth2 = "oauth2"
)

// oauthScope is the scope OpenProject grants for API v3 access.
const oauthScope = "api_v3"

// Credentials selects and configures how requests are authenticated.
type Credentials struct {
	// Mode is AuthAPIKey (default) or AuthOAuth2.
	Mode string
	// APIToken is the personal access token used in apikey mode.
	APIToken string
	// ClientID and ClientSecret identify the OAuth application in oauth2 mode.
	ClientID     string
	ClientSecret string
	// TokenPath caches the oauth2 access token between runs. Empty disables
	// caching.
	TokenPath string
	Timeout   time.Duration
}

// HTTPClient returns an *http.Client that authenticates every request
// against the OpenProject instance at baseURL.
func HTTPClient(ctx context.Context, baseURL string, creds Credentials) (*http.Client, error) {
	switch creds.Mode {
	case "", AuthAPIKey:
		if creds.APIToken == "" {
			return nil, fmt.Errorf("no API token configured (set openproject.api_token or OPENPROJECT_API_TOKEN)")
		}
		return &http.Client{
			Timeout:   creds.Timeout,
			Transport: &apiKeyTransport{token: creds.APIToken},
		}, nil

	case AuthOAuth2:
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("oauth2 mode requires openproject.client_id and openproject.client_secret")
		}
		cfg := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     strings.TrimRight(baseURL, "/") + "/oauth/token",
			Scopes:       []string{oauthScope},
		}

		// The token endpoint gets the same timeout as API calls.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: creds.Timeout})

		tok, err := loadToken(creds.TokenPath)
		if err != nil {
			slog.Warn("ignoring cached token", "error", err)
			tok = nil
		}
		ts := oauth2.ReuseTokenSource(tok, &savingTokenSource{ts: cfg.TokenSource(ctx), path: creds.TokenPath})

		client := oauth2.NewClient(ctx, ts)
		client.Timeout = creds.Timeout
		return client, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q (want %q or %q)", creds.Mode, AuthAPIKey, AuthOAuth2)
	}
}

// apiKeyTransport adds OpenProject's "apikey" Basic credentials.
type apiKeyTransport struct {
	token string
	base  http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	r.SetBasicAuth("apikey", t.token)
	return base.RoundTrip(r)
}

// savingTokenSource wraps a TokenSource and persists fetched tokens.
type savingTokenSource struct {
	ts   oauth2.TokenSource
	path string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.ts.Token()
	if err != nil {
		return nil, err
	}
	// Best-effort save.
	if err := saveToken(s.path, tok); err != nil {
		slog.Warn("could not save token", "path", s.path, "error", err)
	}
	return tok, nil
}

// loadToken loads a previously saved token. A missing file or empty path
// yields a nil token.
func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("corrupt token file (delete %s to re-authenticate): %w", path, err)
	}
	return &tok, nil
}

// saveToken persists a token to path with a tmp+rename write.
func saveToken(path string, tok *oauth2.Token) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling token: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving token file: %w", err)
	}
	return nil
}
