// Package ai provides the provider gateway used for quote generation and
// reply-intent classification. The gateway is a thin transport: it performs
// no retries of its own. Primary/fallback policy lives in GenerateJSON, the
// single helper both callers share.
package ai

import (
	"context"
	"errors"

	"leadflow_backend/platform/logger"
)

// Provider is one interchangeable text-generation backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg ModelConfig) (string, error)
}

// ConfigSource resolves the active primary and fallback model configs.
type ConfigSource interface {
	ActiveModels(ctx context.Context) (ModelConfig, *ModelConfig, error)
}

// Gateway routes generation requests to the registered provider for a model
// config.
type Gateway struct {
	providers map[string]Provider
	configs   ConfigSource
	log       *logger.Logger
}

// NewGateway creates a gateway over the given providers.
func NewGateway(configs ConfigSource, log *logger.Logger, providers ...Provider) *Gateway {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Gateway{providers: byName, configs: configs, log: log}
}

// Generate runs a single completion against the provider named by cfg.
// No retry, no fallback.
func (g *Gateway) Generate(ctx context.Context, prompt string, cfg ModelConfig) (string, error) {
	provider, ok := g.providers[cfg.Provider]
	if !ok {
		return "", &ProviderError{Provider: cfg.Provider, Model: cfg.ModelID, Reason: "no registered provider"}
	}
	return provider.Generate(ctx, prompt, cfg)
}

// GenerateJSON resolves the active models, runs the prompt against the
// primary, retries exactly once against the fallback on a provider failure,
// and parses the result as strict JSON with the given required keys.
// With no fallback configured, a primary failure surfaces directly. A parse
// failure is a contract violation, not a transport failure, and is never
// retried.
func (g *Gateway) GenerateJSON(ctx context.Context, prompt string, required ...string) (map[string]any, error) {
	primary, fallback, err := g.configs.ActiveModels(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := g.Generate(ctx, prompt, primary)
	if err != nil {
		var provErr *ProviderError
		if !errors.As(err, &provErr) || fallback == nil {
			return nil, err
		}
		g.log.ProviderFallback(primary.ModelID, fallback.ModelID, err)
		raw, err = g.Generate(ctx, prompt, *fallback)
		if err != nil {
			return nil, err
		}
	}

	return ParseJSON(raw, required...)
}
