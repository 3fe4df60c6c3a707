// Package billing converts ready-to-purchase leads into customers and
// invoices in the external accounting system.
package billing

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

var ErrNoToken = errors.New("no oauth token on file for realm")

// refreshWindow is how close to expiry a token may get before we refresh.
const refreshWindow = 5 * time.Minute

type Token struct {
	RealmID      string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

func (s *TokenStore) Get(ctx context.Context, realmID string) (Token, error) {
	var t Token
	err := s.pool.QueryRow(ctx, `
		SELECT realm_id, access_token, refresh_token, expires_at, updated_at
		FROM oauth_tokens WHERE realm_id = $1
	`, realmID).Scan(&t.RealmID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Token{}, ErrNoToken
	}
	return t, err
}

func (s *TokenStore) Save(ctx context.Context, t Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_tokens (realm_id, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (realm_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`, t.RealmID, t.AccessToken, t.RefreshToken, t.ExpiresAt)
	return err
}

// TokenManager hands out valid access tokens, refreshing synchronously when
// the stored token is within the refresh window. A failed refresh is fatal
// to the calling conversion attempt.
type TokenManager struct {
	store        *TokenStore
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
	log          *logger.Logger
}

func NewTokenManager(store *TokenStore, tokenURL, clientID, clientSecret string, log *logger.Logger) *TokenManager {
	return &TokenManager{
		store:        store,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 15 * time.Second},
		log:          log,
	}
}

func (m *TokenManager) AccessToken(ctx context.Context, realmID string) (string, error) {
	token, err := m.store.Get(ctx, realmID)
	if errors.Is(err, ErrNoToken) {
		return "", apperr.Configuration("billing is not connected: no oauth token on file")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to load billing token", err)
	}

	if time.Until(token.ExpiresAt) > refreshWindow {
		return token.AccessToken, nil
	}

	refreshed, err := m.refresh(ctx, token)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "billing token refresh failed", err)
	}
	if err := m.store.Save(ctx, refreshed); err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to persist refreshed billing token", err)
	}

	m.log.Info("billing token refreshed", "realm", realmID, "expiresAt", refreshed.ExpiresAt)
	return refreshed.AccessToken, nil
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (m *TokenManager) refresh(ctx context.Context, token Token) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return Token{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return Token{}, fmt.Errorf("token endpoint returned empty access token")
	}

	refreshToken := parsed.RefreshToken
	if refreshToken == "" {
		refreshToken = token.RefreshToken
	}

	return Token{
		RealmID:      token.RealmID,
		AccessToken:  parsed.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
	}, nil
}
