package openproject_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/worklog/internal/openproject"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openproject.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	httpClient, err := openproject.HTTPClient(context.Background(), srv.URL, openproject.Credentials{
		Mode:     openproject.AuthAPIKey,
		APIToken: "secret",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("HTTPClient: %v", err)
	}
	return openproject.NewClient(srv.URL+"/", httpClient, nil)
}

func TestRequestSendsAPIKeyAndJSON(t *testing.T) {
	var gotPath, gotUser, gotPass, gotBody, gotType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/hal+json")
		_, _ = w.Write([]byte(`{"id": 12}`))
	})

	raw, err := client.Request(context.Background(), http.MethodPost, "/time_entries", map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(raw) != `{"id": 12}` {
		t.Errorf("raw = %s", raw)
	}
	if gotPath != "/api/v3/time_entries" {
		t.Errorf("path = %q, want /api/v3/time_entries", gotPath)
	}
	if gotUser != "apikey" || gotPass != "secret" {
		t.Errorf("basic auth = %q:%q, want apikey:secret", gotUser, gotPass)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
	if gotBody != `{"a":1}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message from body", http.StatusUnprocessableEntity, `{"_type":"Error","message":"Subject can't be blank."}`, "Subject can't be blank."},
		{"no message", http.StatusInternalServerError, `{}`, "API error: 500"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "API error: 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Request(context.Background(), http.MethodGet, "/projects", nil)
			var apiErr *openproject.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg || err.Error() != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestRequestInvalidJSONResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	_, err := client.Request(context.Background(), http.MethodGet, "/users/me", nil)
	if err == nil || !strings.Contains(err.Error(), "invalid JSON") {
		t.Errorf("err = %v, want invalid JSON error", err)
	}
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := client.Request(context.Background(), http.MethodGet, "/work_packages/1", nil)
	if !openproject.IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false", err)
	}
	if openproject.IsNotFound(errors.New("other")) {
		t.Error("IsNotFound(plain error) = true")
	}
}

func TestHTTPClientValidation(t *testing.T) {
	tests := []struct {
		name  string
		creds openproject.Credentials
	}{
		{"apikey without token", openproject.Credentials{Mode: openproject.AuthAPIKey}},
		{"oauth2 without secret", openproject.Credentials{Mode: openproject.AuthOAuth2, ClientID: "id"}},
		{"unknown mode", openproject.Credentials{Mode: "kerberos", APIToken: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := openproject.HTTPClient(context.Background(), "http://example.invalid", tt.creds); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHTTPClientOAuth2CachesToken(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		_ = r.ParseForm()
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.Form.Get("scope"); got != "api_v3" {
			t.Errorf("scope = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/api/v3/users/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Jane Doe"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokenPath := filepath.Join(t.TempDir(), "auth", "openproject_token.json")
	creds := openproject.Credentials{
		Mode:         openproject.AuthOAuth2,
		ClientID:     "client",
		ClientSecret: "secret",
		TokenPath:    tokenPath,
		Timeout:      5 * time.Second,
	}

	for i := 0; i < 2; i++ {
		httpClient, err := openproject.HTTPClient(context.Background(), srv.URL, creds)
		if err != nil {
			t.Fatalf("HTTPClient: %v", err)
		}
		api := openproject.NewAPI(openproject.NewClient(srv.URL, httpClient, nil))
		me, err := api.Me(context.Background())
		if err != nil {
			t.Fatalf("Me (run %d): %v", i+1, err)
		}
		if me.Name != "Jane Doe" {
			t.Errorf("Name = %q", me.Name)
		}
	}

	if tokenRequests != 1 {
		t.Errorf("token requests = %d, want 1 (second run should reuse the cached token)", tokenRequests)
	}
	if _, err := os.Stat(tokenPath); err != nil {
		t.Errorf("token file not written: %v", err)
	}
}
