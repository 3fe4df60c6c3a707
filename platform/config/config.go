// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig provides JWT validation settings for admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthConfig provides settings for the admin login endpoint.
type AuthConfig interface {
	GetAdminEmail() string
	GetAdminPasswordHash() string
	GetJWTAccessSecret() string
	GetJWTAccessTTL() time.Duration
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetEmailProvider() string
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayKey() string
	GetSMSFromNumber() string
}

// AIConfig provides settings for the AI provider gateway.
type AIConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetGeminiAPIKey() string
}

// BillingConfig provides settings for the external accounting system.
type BillingConfig interface {
	GetBillingBaseURL() string
	GetBillingTokenURL() string
	GetBillingClientID() string
	GetBillingClientSecret() string
	GetBillingRealmID() string
	GetPaymentBaseURL() string
	IsBillingEnabled() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetFollowUpTickInterval() time.Duration
}

// FollowUpConfig provides the follow-up cadence settings.
type FollowUpConfig interface {
	GetFollowUpIntervalDays() int
	GetMaxFollowUps() int
}

// InboxConfig provides settings for the IMAP reply poller.
type InboxConfig interface {
	GetIMAPHost() string
	GetIMAPPort() int
	GetIMAPUsername() string
	GetIMAPPassword() string
	GetIMAPFolder() string
	GetIMAPPollInterval() time.Duration
	IsInboxEnabled() bool
}

// NotificationConfig provides settings for operator notifications.
type NotificationConfig interface {
	GetOperatorEmail() string
	GetAppBaseURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	JWTAccessTTL         time.Duration
	AdminEmail           string
	AdminPasswordHash    string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	AppBaseURL           string
	OperatorEmail        string
	EmailEnabled         bool
	EmailProvider        string
	BrevoAPIKey          string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	SMSGatewayURL        string
	SMSGatewayKey        string
	SMSFromNumber        string
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	GeminiAPIKey         string
	BillingBaseURL       string
	BillingTokenURL      string
	BillingClientID      string
	BillingClientSecret  string
	BillingRealmID       string
	PaymentBaseURL       string
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	FollowUpTickInterval time.Duration
	FollowUpIntervalDays int
	MaxFollowUps         int
	IMAPHost             string
	IMAPPort             int
	IMAPUsername         string
	IMAPPassword         string
	IMAPFolder           string
	IMAPPollInterval     time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthConfig implementation
func (c *Config) GetAdminEmail() string          { return c.AdminEmail }
func (c *Config) GetAdminPasswordHash() string   { return c.AdminPasswordHash }
func (c *Config) GetJWTAccessTTL() time.Duration { return c.JWTAccessTTL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetEmailProvider() string    { return c.EmailProvider }
func (c *Config) GetBrevoAPIKey() string      { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMSConfig implementation
func (c *Config) GetSMSGatewayURL() string { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayKey() string { return c.SMSGatewayKey }
func (c *Config) GetSMSFromNumber() string { return c.SMSFromNumber }

// AIConfig implementation
func (c *Config) GetOpenAIAPIKey() string  { return c.OpenAIAPIKey }
func (c *Config) GetOpenAIBaseURL() string { return c.OpenAIBaseURL }
func (c *Config) GetGeminiAPIKey() string  { return c.GeminiAPIKey }

// BillingConfig implementation
func (c *Config) GetBillingBaseURL() string      { return c.BillingBaseURL }
func (c *Config) GetBillingTokenURL() string     { return c.BillingTokenURL }
func (c *Config) GetBillingClientID() string     { return c.BillingClientID }
func (c *Config) GetBillingClientSecret() string { return c.BillingClientSecret }
func (c *Config) GetBillingRealmID() string      { return c.BillingRealmID }
func (c *Config) GetPaymentBaseURL() string      { return c.PaymentBaseURL }
func (c *Config) IsBillingEnabled() bool {
	return c.BillingBaseURL != "" && c.BillingRealmID != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetFollowUpTickInterval() time.Duration { return c.FollowUpTickInterval }

// FollowUpConfig implementation
func (c *Config) GetFollowUpIntervalDays() int { return c.FollowUpIntervalDays }
func (c *Config) GetMaxFollowUps() int         { return c.MaxFollowUps }

// InboxConfig implementation
func (c *Config) GetIMAPHost() string                { return c.IMAPHost }
func (c *Config) GetIMAPPort() int                   { return c.IMAPPort }
func (c *Config) GetIMAPUsername() string            { return c.IMAPUsername }
func (c *Config) GetIMAPPassword() string            { return c.IMAPPassword }
func (c *Config) GetIMAPFolder() string              { return c.IMAPFolder }
func (c *Config) GetIMAPPollInterval() time.Duration { return c.IMAPPollInterval }
func (c *Config) IsInboxEnabled() bool {
	return c.IMAPHost != "" && c.IMAPUsername != ""
}

// NotificationConfig implementation
func (c *Config) GetOperatorEmail() string { return c.OperatorEmail }
func (c *Config) GetAppBaseURL() string    { return c.AppBaseURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailProvider := strings.ToLower(getEnv("EMAIL_PROVIDER", "brevo"))
	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		JWTAccessTTL:         mustDuration(getEnv("JWT_ACCESS_TTL", "12h")),
		AdminEmail:           getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash:    getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:4200"),
		OperatorEmail:        getEnv("OPERATOR_EMAIL", ""),
		EmailEnabled:         emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		EmailProvider:        emailProvider,
		BrevoAPIKey:          brevoAPIKey,
		SMTPHost:             smtpHost,
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "LeadFlow"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		SMSGatewayURL:        getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:        getEnv("SMS_GATEWAY_KEY", ""),
		SMSFromNumber:        getEnv("SMS_FROM_NUMBER", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		BillingBaseURL:       getEnv("BILLING_BASE_URL", ""),
		BillingTokenURL:      getEnv("BILLING_TOKEN_URL", "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"),
		BillingClientID:      getEnv("BILLING_CLIENT_ID", ""),
		BillingClientSecret:  getEnv("BILLING_CLIENT_SECRET", ""),
		BillingRealmID:       getEnv("BILLING_REALM_ID", ""),
		PaymentBaseURL:       getEnv("PAYMENT_BASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		FollowUpTickInterval: mustDuration(getEnv("FOLLOWUP_TICK_INTERVAL", "15m")),
		FollowUpIntervalDays: mustInt(getEnv("FOLLOWUP_INTERVAL_DAYS", "4")),
		MaxFollowUps:         mustInt(getEnv("FOLLOWUP_MAX_STEPS", "4")),
		IMAPHost:             getEnv("IMAP_HOST", ""),
		IMAPPort:             mustInt(getEnv("IMAP_PORT", "993")),
		IMAPUsername:         getEnv("IMAP_USERNAME", ""),
		IMAPPassword:         getEnv("IMAP_PASSWORD", ""),
		IMAPFolder:           getEnv("IMAP_FOLDER", "INBOX"),
		IMAPPollInterval:     mustDuration(getEnv("IMAP_POLL_INTERVAL", "2m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if emailEnabled && brevoAPIKey == "" && smtpHost == "" {
		return nil, fmt.Errorf("BREVO_API_KEY or SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.FollowUpIntervalDays < 1 {
		return nil, fmt.Errorf("FOLLOWUP_INTERVAL_DAYS must be at least 1")
	}
	if cfg.MaxFollowUps < 1 {
		return nil, fmt.Errorf("FOLLOWUP_MAX_STEPS must be at least 1")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
