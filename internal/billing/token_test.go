package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadflow_backend/platform/logger"
)

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("auth header = %q", got)
		}
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "old-refresh" {
			t.Errorf("form = %v", r.Form)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	m := NewTokenManager(nil, srv.URL, "client-id", "client-secret", logger.New("test"))
	refreshed, err := m.refresh(context.Background(), Token{
		RealmID:      "realm-1",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if refreshed.AccessToken != "new-access" || refreshed.RefreshToken != "new-refresh" {
		t.Errorf("refreshed = %+v", refreshed)
	}
	if until := time.Until(refreshed.ExpiresAt); until < 55*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry %v not near one hour out", until)
	}
}

func TestRefreshTokenKeepsOldRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "new-access", "expires_in": 3600})
	}))
	defer srv.Close()

	m := NewTokenManager(nil, srv.URL, "id", "secret", logger.New("test"))
	refreshed, err := m.refresh(context.Background(), Token{RefreshToken: "old-refresh"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken != "old-refresh" {
		t.Errorf("refresh token = %q, want the original kept", refreshed.RefreshToken)
	}
}

func TestRefreshTokenFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	m := NewTokenManager(nil, srv.URL, "id", "secret", logger.New("test"))
	_, err := m.refresh(context.Background(), Token{RefreshToken: "revoked"})
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected status error, got %v", err)
	}
}
