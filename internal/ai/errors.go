package ai

import "fmt"

// ProviderError indicates the text-generation provider failed to produce a
// usable completion: transport failure, non-2xx response, malformed response
// envelope, truncated output, or empty content.
type ProviderError struct {
	Provider   string
	Model      string
	Reason     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai provider %s (%s): %s (status %d)", e.Provider, e.Model, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("ai provider %s (%s): %s", e.Provider, e.Model, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ParseError indicates the provider returned content that is not the JSON
// document the caller declared, or is missing required keys. Distinct from
// ProviderError so callers can tell transport failures from contract
// violations.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return "ai response parse: " + e.Reason
}
