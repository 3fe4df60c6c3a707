// Package followup runs the timed follow-up sequence for quoted leads that
// have not replied.
package followup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/service"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// LeadResult is the per-lead outcome of a batch run. One failing lead never
// aborts the rest of the batch.
type LeadResult struct {
	LeadID uuid.UUID
	Step   int
	Err    error
}

type Service struct {
	repo         *repository.Repository
	machine      *service.StateMachine
	dispatcher   service.MessageDispatcher
	intervalDays int
	maxSteps     int
	concurrency  int64
	log          *logger.Logger
}

func NewService(repo *repository.Repository, machine *service.StateMachine, dispatcher service.MessageDispatcher, cfg config.FollowUpConfig, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		machine:      machine,
		dispatcher:   dispatcher,
		intervalDays: cfg.GetFollowUpIntervalDays(),
		maxSteps:     cfg.GetMaxFollowUps(),
		concurrency:  4,
		log:          log,
	}
}

// RunBatch selects every due lead and processes each one independently.
func (s *Service) RunBatch(ctx context.Context) ([]LeadResult, error) {
	due, err := s.repo.DueForFollowUp(ctx, s.intervalDays, s.maxSteps, 500)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "due-lead selection failed", err)
	}
	if len(due) == 0 {
		return nil, nil
	}
	s.log.Info("follow-up batch starting", "due", len(due))

	sem := semaphore.NewWeighted(s.concurrency)
	results := make([]LeadResult, len(due))
	var wg sync.WaitGroup

	for i, lead := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = LeadResult{LeadID: lead.ID, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, lead repository.Lead) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = s.ProcessLead(ctx, lead)
		}(i, lead)
	}
	wg.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	s.log.Info("follow-up batch finished", "processed", len(results), "failed", failed)
	return results, nil
}

// ProcessLead sends the next follow-up for one lead. The eligibility guard
// re-runs here so stale batch selections (a reply that landed mid-batch)
// fall out as conflicts instead of duplicate sends.
func (s *Service) ProcessLead(ctx context.Context, lead repository.Lead) LeadResult {
	step := lead.FollowUpCount + 1
	result := LeadResult{LeadID: lead.ID, Step: step}
	log := s.log.WithLeadID(lead.ID.String())

	var lastContact time.Time
	if lead.LastCommunication != nil {
		lastContact = *lead.LastCommunication
	}
	if err := domain.FollowUpEligibility(lead.Status, lead.ReplyDetected, lead.FollowUpCount,
		lastContact, time.Now(), s.intervalDays, s.maxSteps); err != nil {
		result.Err = apperr.Conflict(err.Error())
		return result
	}

	tpl, err := s.repo.TemplateBySequence(ctx, step)
	if errors.Is(err, repository.ErrTemplateNotFound) {
		log.Warn("no active follow-up template for step, skipping lead", "step", step)
		result.Err = apperr.Configuration(fmt.Sprintf("no active template for follow-up step %d", step))
		return result
	}
	if err != nil {
		result.Err = apperr.Wrap(apperr.KindInternal, "template lookup failed", err)
		return result
	}

	placeholders := placeholdersFor(lead)
	msg := outreach.Message{
		ToEmail:      lead.Email,
		ToPhone:      stringOrEmpty(lead.Phone),
		DirectorName: lead.FirstName,
		EmailSubject: outreach.Personalize(tpl.EmailSubject, placeholders),
		EmailBody:    outreach.Personalize(tpl.EmailBody, placeholders),
		SMSBody:      outreach.Personalize(tpl.SMSBody, placeholders),
		FollowUp:     true,
	}

	// Transition first: if the guarded UPDATE loses a race (reply arrived,
	// manual conversion), nothing is sent.
	updated, err := s.machine.MarkFollowUpSent(ctx, lead, step)
	if err != nil {
		result.Err = err
		return result
	}

	for _, res := range s.dispatcher.Send(ctx, msg) {
		body := msg.EmailBody
		var subject *string
		if res.Channel == outreach.ChannelSMS {
			body = msg.SMSBody
		} else {
			subject = &msg.EmailSubject
		}

		metadata := map[string]any{"success": res.Err == nil, "followUpStep": step}
		if res.MessageID != "" {
			metadata["messageId"] = res.MessageID
		}
		if res.Err != nil {
			metadata["error"] = res.Err.Error()
		}

		s.machine.RecordCommunication(ctx, repository.AppendCommunicationParams{
			LeadID:    updated.ID,
			Channel:   res.Channel,
			Direction: "outbound",
			Subject:   subject,
			Body:      body,
			Metadata:  metadata,
		})
	}

	log.Info("follow-up sent", "step", step, "status", string(updated.Status))
	return result
}

func placeholdersFor(lead repository.Lead) outreach.Placeholders {
	p := outreach.Placeholders{
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		SchoolName:  stringOrEmpty(lead.SchoolName),
		ProgramType: stringOrEmpty(lead.ProgramType),
		Deadline:    lead.EarlyBirdDeadline,
		EventDate:   lead.EventDate,
	}
	if lead.EstimatedPerformers != nil {
		p.Performers = *lead.EstimatedPerformers
	}
	if lead.StandardRateCents != nil {
		p.StandardRate = email.FormatCurrencyUSD(*lead.StandardRateCents)
	}
	if lead.DiscountRateCents != nil {
		p.DiscountRate = email.FormatCurrencyUSD(*lead.DiscountRateCents)
		if lead.StandardRateCents != nil {
			savings := *lead.StandardRateCents - *lead.DiscountRateCents
			if savings < 0 {
				savings = 0
			}
			p.Savings = email.FormatCurrencyUSD(savings)
		}
	}
	return p
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
