package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadflow_backend/platform/sanitize"
)

// LeadProfile is the snapshot the engine quotes against.
type LeadProfile struct {
	FirstName           string
	LastName            string
	SchoolName          string
	ProgramType         string
	EstimatedPerformers int
	EarlyBirdDeadline   *time.Time
	EventDate           *time.Time
}

// Quote pairs the deterministic pricing with the generated outreach content.
type Quote struct {
	Pricing      Pricing
	EmailSubject string
	EmailContent string
	SMSContent   string
}

// QuoteGenerationError means the model returned unusable content for a
// quote. Pricing itself is never the failure; only content generation is.
type QuoteGenerationError struct {
	Err error
}

func (e *QuoteGenerationError) Error() string {
	return fmt.Sprintf("quote content generation failed: %v", e.Err)
}

func (e *QuoteGenerationError) Unwrap() error { return e.Err }

type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, required ...string) (map[string]any, error)
}

type Engine struct {
	gateway Generator
}

func NewEngine(gateway Generator) *Engine {
	return &Engine{gateway: gateway}
}

// Generate prices the program deterministically, then asks the model to
// write the outreach around those exact numbers. The model never sets
// prices; it echoes them back so the parse can verify the contract.
func (e *Engine) Generate(ctx context.Context, profile LeadProfile) (Quote, error) {
	pricing := Price(profile.EstimatedPerformers, profile.EarlyBirdDeadline)

	doc, err := e.gateway.GenerateJSON(ctx, buildQuotePrompt(profile, pricing),
		"standardRate", "discountRate", "emailSubject", "emailContent", "smsContent")
	if err != nil {
		return Quote{}, &QuoteGenerationError{Err: err}
	}

	quote := Quote{
		Pricing:      pricing,
		EmailSubject: strings.TrimSpace(str(doc["emailSubject"])),
		EmailContent: strings.TrimSpace(str(doc["emailContent"])),
		SMSContent:   strings.TrimSpace(str(doc["smsContent"])),
	}
	if quote.EmailSubject == "" || quote.EmailContent == "" || quote.SMSContent == "" {
		return Quote{}, &QuoteGenerationError{Err: fmt.Errorf("model returned empty outreach content")}
	}

	return quote, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

func buildQuotePrompt(profile LeadProfile, pricing Pricing) string {
	var b strings.Builder
	b.WriteString("You write warm, professional outreach for a performance media company that films and photographs school band performances, selling per-performer packages to band directors.\n\n")
	fmt.Fprintf(&b, "Director: %s %s\n", sanitize.PromptText(profile.FirstName, 100), sanitize.PromptText(profile.LastName, 100))
	if profile.SchoolName != "" {
		fmt.Fprintf(&b, "School: %s\n", sanitize.PromptText(profile.SchoolName, 200))
	}
	if profile.ProgramType != "" {
		fmt.Fprintf(&b, "Program: %s\n", sanitize.PromptText(profile.ProgramType, 200))
	}
	fmt.Fprintf(&b, "Estimated performers: %d\n", pricing.PerformerCount)
	if profile.EventDate != nil {
		fmt.Fprintf(&b, "Event date: %s\n", profile.EventDate.Format("January 2, 2006"))
	}

	b.WriteString("\nThe pricing below is final and computed by our system. Use these exact figures; never invent or adjust prices.\n")
	fmt.Fprintf(&b, "Per-performer rate: %s\n", dollars(pricing.RateCents))
	fmt.Fprintf(&b, "Standard total: %s\n", dollars(pricing.StandardCents))
	if pricing.EarlyBirdApplied {
		fmt.Fprintf(&b, "Early-bird total: %s (book by %s, saving %s)\n",
			dollars(pricing.DiscountCents), pricing.EarlyBirdDeadline.Format("January 2, 2006"), dollars(pricing.SavingsCents))
	} else {
		b.WriteString("No early-bird discount applies.\n")
	}

	b.WriteString("\nWrite a quote email (subject + body, addressed to the director by first name) and a short SMS under 320 characters that points to the email.\n")
	b.WriteString("Respond with ONLY a JSON object, no markdown fences, in exactly this shape:\n")
	fmt.Fprintf(&b, `{"standardRate": "%s", "discountRate": "%s", "emailSubject": "...", "emailContent": "...", "smsContent": "..."}`,
		dollars(pricing.StandardCents), dollars(pricing.DiscountCents))
	b.WriteString("\n")
	return b.String()
}
