package quotes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubGenerator struct {
	doc    map[string]any
	err    error
	prompt string
}

func (s *stubGenerator) GenerateJSON(_ context.Context, prompt string, _ ...string) (map[string]any, error) {
	s.prompt = prompt
	return s.doc, s.err
}

func validDoc() map[string]any {
	return map[string]any{
		"standardRate": "$900.00",
		"discountRate": "$765.00",
		"emailSubject": "Your performance media quote",
		"emailContent": "Hi Dana, here is your quote...",
		"smsContent":   "Hi Dana! We just emailed your quote.",
	}
}

func TestEngineGenerate(t *testing.T) {
	gen := &stubGenerator{doc: validDoc()}
	deadline := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	quote, err := NewEngine(gen).Generate(context.Background(), LeadProfile{
		FirstName:           "Dana",
		LastName:            "Reyes",
		SchoolName:          "Westfield High",
		EstimatedPerformers: 60,
		EarlyBirdDeadline:   &deadline,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if quote.Pricing.StandardCents != 90000 {
		t.Errorf("standard = %d, want 90000", quote.Pricing.StandardCents)
	}
	if quote.Pricing.DiscountCents != 76500 {
		t.Errorf("discounted = %d, want 76500", quote.Pricing.DiscountCents)
	}
	if quote.EmailSubject == "" || quote.EmailContent == "" || quote.SMSContent == "" {
		t.Errorf("outreach content missing: %+v", quote)
	}
}

func TestEnginePromptCarriesDeterministicPrices(t *testing.T) {
	gen := &stubGenerator{doc: validDoc()}

	_, err := NewEngine(gen).Generate(context.Background(), LeadProfile{
		FirstName:           "Dana",
		EstimatedPerformers: 60,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(gen.prompt, "$900.00") {
		t.Error("prompt must contain the computed standard total")
	}
	if !strings.Contains(gen.prompt, "never invent or adjust prices") {
		t.Error("prompt must pin pricing to the computed figures")
	}
}

func TestEngineGatewayFailureIsHard(t *testing.T) {
	gen := &stubGenerator{err: errors.New("providers exhausted")}

	_, err := NewEngine(gen).Generate(context.Background(), LeadProfile{FirstName: "Dana", EstimatedPerformers: 40})

	var genErr *QuoteGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want *QuoteGenerationError, got %v", err)
	}
}

func TestEngineEmptyContentIsHard(t *testing.T) {
	doc := validDoc()
	doc["emailContent"] = "   "
	gen := &stubGenerator{doc: doc}

	_, err := NewEngine(gen).Generate(context.Background(), LeadProfile{FirstName: "Dana", EstimatedPerformers: 40})

	var genErr *QuoteGenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("want *QuoteGenerationError for empty content, got %v", err)
	}
}
