package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"leadflow_backend/internal/auth/password"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

type testAuthConfig struct {
	email  string
	hash   string
	secret string
	ttl    time.Duration
}

func (c testAuthConfig) GetAdminEmail() string          { return c.email }
func (c testAuthConfig) GetAdminPasswordHash() string   { return c.hash }
func (c testAuthConfig) GetJWTAccessSecret() string     { return c.secret }
func (c testAuthConfig) GetJWTAccessTTL() time.Duration { return c.ttl }

func testService(t *testing.T, plainPassword string) (*Service, testAuthConfig) {
	t.Helper()
	hash, err := password.Hash(plainPassword)
	require.NoError(t, err)

	cfg := testAuthConfig{
		email:  "ops@encoremedia.test",
		hash:   hash,
		secret: "test-secret",
		ttl:    time.Hour,
	}
	return NewService(cfg, logger.New("test")), cfg
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, cfg := testService(t, "correct horse battery staple")

	tokens, err := svc.Login("OPS@encoremedia.test", "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), tokens.ExpiresAt, time.Minute)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokens.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "operator", claims["sub"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := testService(t, "correct horse battery staple")

	_, err := svc.Login("ops@encoremedia.test", "wrong password entirely")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestLoginRejectsWrongEmail(t *testing.T) {
	svc, _ := testService(t, "correct horse battery staple")

	_, err := svc.Login("intruder@example.com", "correct horse battery staple")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestLoginUnconfigured(t *testing.T) {
	svc := NewService(testAuthConfig{secret: "s", ttl: time.Hour}, logger.New("test"))

	_, err := svc.Login("ops@encoremedia.test", "anything at all")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindConfiguration))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := password.Hash("a modest secret")
	require.NoError(t, err)
	require.NoError(t, password.Compare(hash, "a modest secret"))
	require.Error(t, password.Compare(hash, "a different secret"))
}
