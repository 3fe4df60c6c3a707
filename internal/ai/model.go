package ai

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifiers. Each maps to a registered Provider implementation.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ModelConfig identifies one configured text-generation model and its
// precedence. At most one active config is primary; zero fallbacks is legal
// (a primary failure then surfaces to the caller as a hard error).
type ModelConfig struct {
	ID         uuid.UUID
	Provider   string
	ModelID    string
	IsPrimary  bool
	IsFallback bool
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
