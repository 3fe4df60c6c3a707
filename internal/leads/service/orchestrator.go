package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/intent"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/internal/quotes"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// QuoteEngine generates the priced quote and its outreach content.
type QuoteEngine interface {
	Generate(ctx context.Context, profile quotes.LeadProfile) (quotes.Quote, error)
}

// ReplyClassifier categorizes an inbound reply.
type ReplyClassifier interface {
	Classify(ctx context.Context, firstName, schoolName, replyContent string) intent.Result
}

// MessageDispatcher sends personalized content over the configured channels.
type MessageDispatcher interface {
	Send(ctx context.Context, msg outreach.Message) []outreach.ChannelResult
}

// Converter hands a ready lead to the billing system. Wired from
// internal/billing; declared here so the orchestrator owns its needs.
type Converter interface {
	Convert(ctx context.Context, lead repository.Lead) error
}

// Machine is the slice of the state machine the orchestrator drives.
type Machine interface {
	RegisterLead(ctx context.Context, params repository.UpsertLeadParams) (repository.Lead, bool, error)
	GetByEmail(ctx context.Context, email string) (repository.Lead, error)
	MarkQuoteSent(ctx context.Context, lead repository.Lead, standardCents, discountCents int64, suggestedMessage string) (repository.Lead, error)
	ApplyIntent(ctx context.Context, lead repository.Lead, intentType, suggestedResponse string, confidence float64) (repository.Lead, error)
	FlagReplyDetected(ctx context.Context, leadID uuid.UUID) error
	RecordCommunication(ctx context.Context, params repository.AppendCommunicationParams)
}

// Orchestrator drives a lead through its lifecycle: quote on creation,
// classify on reply, convert on purchase intent.
type Orchestrator struct {
	machine    Machine
	engine     QuoteEngine
	classifier ReplyClassifier
	dispatcher MessageDispatcher
	converter  Converter
	log        *logger.Logger
}

func NewOrchestrator(machine Machine, engine QuoteEngine, classifier ReplyClassifier, dispatcher MessageDispatcher, converter Converter, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		machine:    machine,
		engine:     engine,
		classifier: classifier,
		dispatcher: dispatcher,
		converter:  converter,
		log:        log,
	}
}

// IngestLead registers (or refreshes) a lead and, for brand-new leads,
// runs the quote cycle. Returning leads keep their lifecycle position.
func (o *Orchestrator) IngestLead(ctx context.Context, params repository.UpsertLeadParams) (repository.Lead, bool, error) {
	lead, created, err := o.machine.RegisterLead(ctx, params)
	if err != nil {
		return repository.Lead{}, false, err
	}

	if created {
		if quoteErr := o.ProcessNewLead(ctx, lead); quoteErr != nil {
			// Ingestion already succeeded; the quote cycle can be
			// retried and must not fail the webhook.
			o.log.WithLeadID(lead.ID.String()).Error("quote cycle failed after ingestion", "error", quoteErr)
		}
	}

	return lead, created, nil
}

// ProcessNewLead runs the full quote cycle: price + generate content,
// dispatch it, then transition NewLead -> QuoteSent. A dispatch failure on
// one channel is recorded but does not block the transition; a generation
// failure aborts before any send.
func (o *Orchestrator) ProcessNewLead(ctx context.Context, lead repository.Lead) error {
	log := o.log.WithLeadID(lead.ID.String())

	if lead.Status != domain.StatusNewLead {
		return apperr.Conflict("lead has already been quoted")
	}

	quote, err := o.engine.Generate(ctx, profileFor(lead))
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "quote generation failed", err)
	}

	results := o.dispatcher.Send(ctx, outreach.Message{
		ToEmail:      lead.Email,
		ToPhone:      stringOrEmpty(lead.Phone),
		DirectorName: lead.FirstName,
		EmailSubject: quote.EmailSubject,
		EmailBody:    quote.EmailContent,
		SMSBody:      quote.SMSContent,
	})

	updated, err := o.machine.MarkQuoteSent(ctx, lead,
		quote.Pricing.StandardCents, quote.Pricing.DiscountCents, quote.EmailContent)
	if err != nil {
		// The sends already went out; the audit trail records them even
		// when the transition lost a race.
		o.recordResults(ctx, lead.ID, results, quote.EmailSubject, quote.EmailContent, quote.SMSContent)
		return err
	}

	o.recordResults(ctx, updated.ID, results, quote.EmailSubject, quote.EmailContent, quote.SMSContent)
	log.Info("quote sent",
		"standardCents", quote.Pricing.StandardCents,
		"discountCents", quote.Pricing.DiscountCents,
		"earlyBird", quote.Pricing.EarlyBirdApplied)
	return nil
}

// ReplyInput is an inbound reply from the webhook or the inbox poller.
type ReplyInput struct {
	LeadEmail    string
	ReplyContent string
	ReplySubject string
	ReceivedAt   *time.Time
	Source       string // "webhook" or "imap"
}

// ReplyOutcome reports what the reply pipeline did.
type ReplyOutcome struct {
	LeadID     uuid.UUID
	IntentType string
	Confidence float64
	Fallback   bool
	Converted  bool
}

// ProcessReply records the inbound message, classifies it, applies the
// intent transition, sends the acknowledgment, and for purchase intent
// kicks off billing conversion.
func (o *Orchestrator) ProcessReply(ctx context.Context, input ReplyInput) (ReplyOutcome, error) {
	lead, err := o.machine.GetByEmail(ctx, input.LeadEmail)
	if err != nil {
		return ReplyOutcome{}, err
	}
	log := o.log.WithLeadID(lead.ID.String())

	// Flag the reply before the (slow) classification call so a follow-up
	// batch running right now skips this lead.
	if err := o.machine.FlagReplyDetected(ctx, lead.ID); err != nil {
		log.Warn("failed to flag reply before classification", "error", err)
	}

	metadata := map[string]any{"source": input.Source}
	if input.ReceivedAt != nil {
		metadata["receivedAt"] = input.ReceivedAt.UTC().Format(time.RFC3339)
	}

	subject := input.ReplySubject
	o.machine.RecordCommunication(ctx, repository.AppendCommunicationParams{
		LeadID:    lead.ID,
		Channel:   outreach.ChannelEmail,
		Direction: "inbound",
		Subject:   optional(subject),
		Body:      input.ReplyContent,
		Metadata:  metadata,
	})

	result := o.classifier.Classify(ctx, lead.FirstName, stringOrEmpty(lead.SchoolName), input.ReplyContent)

	updated, err := o.machine.ApplyIntent(ctx, lead, result.IntentType, result.SuggestedResponse, result.Confidence)
	if err != nil {
		return ReplyOutcome{}, err
	}

	outcome := ReplyOutcome{
		LeadID:     updated.ID,
		IntentType: result.IntentType,
		Confidence: result.Confidence,
		Fallback:   result.Fallback,
	}

	// Acknowledge everything except a hard no.
	if result.IntentType != intent.IntentNotInterested && result.SuggestedResponse != "" {
		ackResults := o.dispatcher.Send(ctx, outreach.Message{
			ToEmail:      updated.Email,
			DirectorName: updated.FirstName,
			EmailSubject: ackSubject(subject),
			EmailBody:    result.SuggestedResponse,
			FollowUp:     true,
		})
		o.recordResults(ctx, updated.ID, ackResults, ackSubject(subject), result.SuggestedResponse, "")
	}

	if result.PurchaseIntent && o.converter != nil {
		if convErr := o.converter.Convert(ctx, updated); convErr != nil {
			// Conversion is retryable from the admin API; the reply
			// pipeline still succeeded.
			log.Error("billing conversion failed", "error", convErr)
		} else {
			outcome.Converted = true
		}
	}

	log.Info("reply processed", "intent", result.IntentType, "confidence", result.Confidence, "fallback", result.Fallback)
	return outcome, nil
}

func (o *Orchestrator) recordResults(ctx context.Context, leadID uuid.UUID, results []outreach.ChannelResult, subject, emailBody, smsBody string) {
	for _, res := range results {
		body := emailBody
		var subj *string
		if res.Channel == outreach.ChannelSMS {
			body = smsBody
		} else {
			subj = optional(subject)
		}

		metadata := map[string]any{"success": res.Err == nil}
		if res.MessageID != "" {
			metadata["messageId"] = res.MessageID
		}
		if res.Err != nil {
			metadata["error"] = res.Err.Error()
		}

		o.machine.RecordCommunication(ctx, repository.AppendCommunicationParams{
			LeadID:    leadID,
			Channel:   res.Channel,
			Direction: "outbound",
			Subject:   subj,
			Body:      body,
			Metadata:  metadata,
		})
	}
}

func profileFor(lead repository.Lead) quotes.LeadProfile {
	return quotes.LeadProfile{
		FirstName:           lead.FirstName,
		LastName:            lead.LastName,
		SchoolName:          stringOrEmpty(lead.SchoolName),
		ProgramType:         stringOrEmpty(lead.ProgramType),
		EstimatedPerformers: intOrZero(lead.EstimatedPerformers),
		EarlyBirdDeadline:   lead.EarlyBirdDeadline,
		EventDate:           lead.EventDate,
	}
}

func ackSubject(replySubject string) string {
	if replySubject == "" {
		return "Thanks for getting back to us"
	}
	return "Re: " + replySubject
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
