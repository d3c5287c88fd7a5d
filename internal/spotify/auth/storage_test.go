package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenStorage(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")

	storage, err := NewTokenStorage(tokenPath)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}

	if storage.Exists() {
		t.Error("Exists() = true, want false for new storage")
	}

	token, err := storage.Load()
	if err != nil {
		t.Errorf("Load() error = %v", err)
	}
	if token != nil {
		t.Error("Load() should return nil for non-existent token")
	}

	testToken := &oauth2.Token{
		AccessToken:  "access_123",
		TokenType:    "Bearer",
		RefreshToken: "refresh_456",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	if err := storage.Save(testToken); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != testToken.AccessToken || loaded.RefreshToken != testToken.RefreshToken {
		t.Errorf("loaded = %+v, want %+v", loaded, testToken)
	}
	if !loaded.Expiry.Equal(testToken.Expiry) {
		t.Errorf("Expiry = %v, want %v", loaded.Expiry, testToken.Expiry)
	}

	info, err := os.Stat(tokenPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("File permissions = %o, want 0600", mode)
	}

	if err := storage.Delete(); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if storage.Exists() {
		t.Error("Exists() = true after delete, want false")
	}
	// Delete on non-existent file should not error
	if err := storage.Delete(); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestTokenStorageNestedDirectory(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "nested", "dir", "token.json")

	storage, err := NewTokenStorage(tokenPath)
	if err != nil {
		t.Fatalf("NewTokenStorage() error = %v", err)
	}
	if err := storage.Save(&oauth2.Token{AccessToken: "test"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !storage.Exists() {
		t.Error("Token file not created in nested directory")
	}
}

func TestTokenSourceMissingToken(t *testing.T) {
	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	ts, err := storage.TokenSource(context.Background(), NewConfig("client", ""))
	if err != nil || ts != nil {
		t.Errorf("TokenSource() = %v, %v; want nil, nil", ts, err)
	}
}

func TestTokenSourcePersistsRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("client_id"); got != "client" {
			t.Errorf("client_id = %q, want it sent in the form", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	storage, _ := NewTokenStorage(filepath.Join(t.TempDir(), "token.json"))
	expired := &oauth2.Token{
		AccessToken:  "stale",
		RefreshToken: "refresh_456",
		Expiry:       time.Now().Add(-time.Hour),
	}
	if err := storage.Save(expired); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig("client", "")
	cfg.Endpoint = oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams}

	ts, err := storage.TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}
	token, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token.AccessToken != "fresh" {
		t.Errorf("AccessToken = %q, want fresh", token.AccessToken)
	}

	saved, err := storage.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.AccessToken != "fresh" || saved.RefreshToken != "refresh_456" {
		t.Errorf("saved token = %+v, want refreshed access token and kept refresh token", saved)
	}
}
