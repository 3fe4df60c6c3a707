// Package auth provides operator authentication for the admin API.
// There is a single operator account configured through the environment;
// successful logins are issued short-lived HS256 access tokens.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadflow_backend/internal/auth/password"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Service authenticates the operator and issues access tokens.
type Service struct {
	cfg config.AuthConfig
	log *logger.Logger
}

func NewService(cfg config.AuthConfig, log *logger.Logger) *Service {
	return &Service{cfg: cfg, log: log}
}

// Tokens is the result of a successful login.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Login verifies the operator credentials and returns a signed access token.
func (s *Service) Login(email, plainPassword string) (Tokens, error) {
	configuredEmail := s.cfg.GetAdminEmail()
	configuredHash := s.cfg.GetAdminPasswordHash()
	if configuredEmail == "" || configuredHash == "" {
		return Tokens{}, apperr.Configuration("operator login is not configured")
	}

	if !strings.EqualFold(strings.TrimSpace(email), configuredEmail) {
		return Tokens{}, apperr.Unauthorized("invalid credentials")
	}
	if err := password.Compare(configuredHash, plainPassword); err != nil {
		s.log.Warn("operator login rejected", "email", email)
		return Tokens{}, apperr.Unauthorized("invalid credentials")
	}

	expiresAt := time.Now().Add(s.cfg.GetJWTAccessTTL())
	claims := jwt.MapClaims{
		"sub": "operator",
		"eml": configuredEmail,
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.GetJWTAccessSecret()))
	if err != nil {
		return Tokens{}, apperr.Wrap(apperr.KindInternal, "failed to sign access token", err)
	}

	return Tokens{AccessToken: signed, ExpiresAt: expiresAt}, nil
}
