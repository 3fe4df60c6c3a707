package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/apperr"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
)

// StateMachine is the only component that writes lead status. Every
// transition is validated against the domain rules and applied with a
// status-guarded UPDATE, so concurrent writers cannot clobber each other.
type StateMachine struct {
	repo *repository.Repository
	bus  platformevents.Bus
	log  *logger.Logger
}

func NewStateMachine(repo *repository.Repository, bus platformevents.Bus, log *logger.Logger) *StateMachine {
	return &StateMachine{repo: repo, bus: bus, log: log}
}

// RegisterLead upserts a lead by email. New leads start in NewLead;
// existing leads keep their status and only refresh contact fields.
func (s *StateMachine) RegisterLead(ctx context.Context, params repository.UpsertLeadParams) (repository.Lead, bool, error) {
	lead, created, err := s.repo.UpsertByEmail(ctx, params)
	if err != nil {
		return repository.Lead{}, false, apperr.Wrap(apperr.KindInternal, "failed to register lead", err)
	}

	if created {
		school := ""
		if lead.SchoolName != nil {
			school = *lead.SchoolName
		}
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:  platformevents.NewBaseEvent(),
			LeadID:     lead.ID,
			Email:      lead.Email,
			FirstName:  lead.FirstName,
			LastName:   lead.LastName,
			SchoolName: school,
		})
	}

	return lead, created, nil
}

func (s *StateMachine) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

func (s *StateMachine) GetByEmail(ctx context.Context, email string) (repository.Lead, error) {
	lead, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

func (s *StateMachine) List(ctx context.Context, params repository.ListParams) ([]repository.Lead, error) {
	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, nil
}

// MarkQuoteSent moves NewLead -> QuoteSent and records the quoted rates and
// the AI-suggested message alongside.
func (s *StateMachine) MarkQuoteSent(ctx context.Context, lead repository.Lead, standardCents, discountCents int64, suggestedMessage string) (repository.Lead, error) {
	stamps := repository.TransitionStamps{
		TouchLastCommunication: true,
		SetQuoteSentDate:       true,
		StandardRateCents:      &standardCents,
		DiscountRateCents:      &discountCents,
	}
	if suggestedMessage != "" {
		stamps.AISuggestedMessage = &suggestedMessage
	}
	return s.transition(ctx, lead, domain.StatusQuoteSent, domain.TriggerQuote, stamps)
}

// MarkFollowUpSent advances the follow-up sequence by one step.
func (s *StateMachine) MarkFollowUpSent(ctx context.Context, lead repository.Lead, step int) (repository.Lead, error) {
	to, err := domain.FollowUpStatus(step)
	if err != nil {
		return repository.Lead{}, apperr.BadRequest(err.Error())
	}
	return s.transition(ctx, lead, to, domain.TriggerFollowUp, repository.TransitionStamps{
		TouchLastCommunication: true,
		IncrementFollowUpCount: true,
	})
}

// FlagReplyDetected sets the reply flag without touching status, so the
// follow-up scheduler backs off the moment a reply lands, before
// classification has finished.
func (s *StateMachine) FlagReplyDetected(ctx context.Context, leadID uuid.UUID) error {
	err := s.repo.SetReplyDetected(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to flag reply", err)
	}
	return nil
}

// ApplyIntent maps a classified reply intent onto the lead. The reply flag
// is set in the same UPDATE so the scheduler never races a fresh reply.
func (s *StateMachine) ApplyIntent(ctx context.Context, lead repository.Lead, intentType, suggestedResponse string, confidence float64) (repository.Lead, error) {
	to, err := domain.StatusForIntent(intentType)
	if err != nil {
		return repository.Lead{}, apperr.BadRequest(err.Error())
	}

	replied := true
	stamps := repository.TransitionStamps{
		TouchLastCommunication: true,
		ReplyDetected:          &replied,
	}
	if suggestedResponse != "" {
		stamps.AISuggestedMessage = &suggestedResponse
	}

	updated, err := s.transition(ctx, lead, to, domain.TriggerIntent, stamps)
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadReplyReceived{
		BaseEvent:  platformevents.NewBaseEvent(),
		LeadID:     updated.ID,
		Email:      updated.Email,
		IntentType: intentType,
		Confidence: confidence,
	})
	return updated, nil
}

// MarkInvoiceSent records a successful billing handoff.
func (s *StateMachine) MarkInvoiceSent(ctx context.Context, lead repository.Lead, externalInvoiceID string) (repository.Lead, error) {
	invoiceStatus := "sent"
	return s.transition(ctx, lead, domain.StatusInvoiceSent, domain.TriggerConversion, repository.TransitionStamps{
		TouchLastCommunication: true,
		InvoiceStatus:          &invoiceStatus,
		ExternalInvoiceID:      &externalInvoiceID,
	})
}

func (s *StateMachine) MarkPaid(ctx context.Context, lead repository.Lead) (repository.Lead, error) {
	invoiceStatus := "paid"
	return s.transition(ctx, lead, domain.StatusConvertedPaid, domain.TriggerPayment, repository.TransitionStamps{
		SetPaymentDate: true,
		InvoiceStatus:  &invoiceStatus,
	})
}

func (s *StateMachine) MarkManuallyConverted(ctx context.Context, lead repository.Lead) (repository.Lead, error) {
	return s.transition(ctx, lead, domain.StatusManualConverted, domain.TriggerManual, repository.TransitionStamps{})
}

func (s *StateMachine) transition(ctx context.Context, lead repository.Lead, to domain.Status, trigger domain.Trigger, stamps repository.TransitionStamps) (repository.Lead, error) {
	if err := domain.ValidateTransition(lead.Status, to, trigger); err != nil {
		return repository.Lead{}, apperr.Conflict(err.Error())
	}

	updated, err := s.repo.Transition(ctx, lead.ID, lead.Status, to, stamps)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if errors.Is(err, repository.ErrStatusChanged) {
		return repository.Lead{}, apperr.Conflict(fmt.Sprintf("lead %s is no longer in status %s", lead.ID, lead.Status))
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to transition lead", err)
	}

	s.log.LeadTransition(lead.ID.String(), string(lead.Status), string(to), string(trigger))
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: platformevents.NewBaseEvent(),
		LeadID:    lead.ID,
		From:      string(lead.Status),
		To:        string(to),
		Trigger:   string(trigger),
	})
	return updated, nil
}

// RecordCommunication appends one record per channel per contact attempt.
// Transport failures are captured in metadata rather than surfaced, so a
// failed send never blocks the transition that already happened.
func (s *StateMachine) RecordCommunication(ctx context.Context, params repository.AppendCommunicationParams) {
	if _, err := s.repo.AppendCommunication(ctx, params); err != nil {
		s.log.DatabaseError("append_communication", err)
	}
}

func (s *StateMachine) Communications(ctx context.Context, leadID uuid.UUID) ([]repository.CommunicationRecord, error) {
	records, err := s.repo.ListCommunications(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list communications", err)
	}
	return records, nil
}
