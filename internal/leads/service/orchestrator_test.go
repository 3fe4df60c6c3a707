package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"leadflow_backend/internal/intent"
	"leadflow_backend/internal/leads/domain"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/outreach"
	"leadflow_backend/internal/quotes"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

// callLog records the order of cross-component calls.
type callLog struct {
	calls []string
}

func (l *callLog) add(name string) { l.calls = append(l.calls, name) }

func (l *callLog) index(name string) int {
	for i, c := range l.calls {
		if c == name {
			return i
		}
	}
	return -1
}

type fakeMachine struct {
	log  *callLog
	lead repository.Lead

	flagErr  error
	quoteErr error
	applyErr error

	recorded []repository.AppendCommunicationParams
}

func (m *fakeMachine) RegisterLead(_ context.Context, _ repository.UpsertLeadParams) (repository.Lead, bool, error) {
	return m.lead, true, nil
}

func (m *fakeMachine) GetByEmail(_ context.Context, _ string) (repository.Lead, error) {
	return m.lead, nil
}

func (m *fakeMachine) MarkQuoteSent(_ context.Context, lead repository.Lead, standardCents, discountCents int64, _ string) (repository.Lead, error) {
	m.log.add("markQuoteSent")
	if m.quoteErr != nil {
		return repository.Lead{}, m.quoteErr
	}
	lead.Status = domain.StatusQuoteSent
	lead.StandardRateCents = &standardCents
	lead.DiscountRateCents = &discountCents
	return lead, nil
}

func (m *fakeMachine) ApplyIntent(_ context.Context, lead repository.Lead, intentType, _ string, _ float64) (repository.Lead, error) {
	m.log.add("applyIntent")
	if m.applyErr != nil {
		return repository.Lead{}, m.applyErr
	}
	to, err := domain.StatusForIntent(intentType)
	if err != nil {
		return repository.Lead{}, err
	}
	lead.Status = to
	lead.ReplyDetected = true
	return lead, nil
}

func (m *fakeMachine) FlagReplyDetected(_ context.Context, _ uuid.UUID) error {
	m.log.add("flagReply")
	return m.flagErr
}

func (m *fakeMachine) RecordCommunication(_ context.Context, params repository.AppendCommunicationParams) {
	m.recorded = append(m.recorded, params)
}

type fakeEngine struct {
	quote quotes.Quote
	err   error
}

func (e *fakeEngine) Generate(_ context.Context, _ quotes.LeadProfile) (quotes.Quote, error) {
	return e.quote, e.err
}

type fakeClassifier struct {
	log    *callLog
	result intent.Result
}

func (c *fakeClassifier) Classify(_ context.Context, _, _, _ string) intent.Result {
	c.log.add("classify")
	return c.result
}

type fakeDispatcher struct {
	results []outreach.ChannelResult
	sent    []outreach.Message
}

func (d *fakeDispatcher) Send(_ context.Context, msg outreach.Message) []outreach.ChannelResult {
	d.sent = append(d.sent, msg)
	return d.results
}

func newTestOrchestrator(machine *fakeMachine, engine *fakeEngine, classifier *fakeClassifier, dispatcher *fakeDispatcher) *Orchestrator {
	return NewOrchestrator(machine, engine, classifier, dispatcher, nil, logger.New("test"))
}

func quotedLead() repository.Lead {
	school := "Westfield High"
	return repository.Lead{
		ID:         uuid.New(),
		FirstName:  "Sarah",
		LastName:   "Chen",
		Email:      "s.chen@westfield.edu",
		SchoolName: &school,
		Status:     domain.StatusQuoteSent,
	}
}

func TestProcessReplyFlagsReplyBeforeClassification(t *testing.T) {
	log := &callLog{}
	machine := &fakeMachine{log: log, lead: quotedLead()}
	classifier := &fakeClassifier{log: log, result: intent.Result{
		IntentType:        intent.IntentInquiry,
		SuggestedResponse: "Happy to walk you through the package details.",
		Confidence:        0.7,
	}}
	dispatcher := &fakeDispatcher{results: []outreach.ChannelResult{{Channel: outreach.ChannelEmail}}}
	orch := newTestOrchestrator(machine, &fakeEngine{}, classifier, dispatcher)

	receivedAt := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	_, err := orch.ProcessReply(context.Background(), ReplyInput{
		LeadEmail:    "s.chen@westfield.edu",
		ReplyContent: "What does the package include?",
		ReceivedAt:   &receivedAt,
		Source:       "webhook",
	})
	require.NoError(t, err)

	flagAt, classifyAt := log.index("flagReply"), log.index("classify")
	require.GreaterOrEqual(t, flagAt, 0)
	require.GreaterOrEqual(t, classifyAt, 0)
	require.Less(t, flagAt, classifyAt, "reply flag must land before classification runs")
}

func TestProcessReplyPersistsReceivedTimestamp(t *testing.T) {
	log := &callLog{}
	machine := &fakeMachine{log: log, lead: quotedLead()}
	classifier := &fakeClassifier{log: log, result: intent.Result{IntentType: intent.IntentInquiry}}
	orch := newTestOrchestrator(machine, &fakeEngine{}, classifier, &fakeDispatcher{})

	receivedAt := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	_, err := orch.ProcessReply(context.Background(), ReplyInput{
		LeadEmail:    "s.chen@westfield.edu",
		ReplyContent: "Checking in on the quote.",
		ReceivedAt:   &receivedAt,
		Source:       "webhook",
	})
	require.NoError(t, err)

	require.NotEmpty(t, machine.recorded)
	inbound := machine.recorded[0]
	require.Equal(t, "inbound", inbound.Direction)
	require.Equal(t, "webhook", inbound.Metadata["source"])
	require.Equal(t, "2026-08-30T14:00:00Z", inbound.Metadata["receivedAt"])
}

func TestProcessNewLeadRecordsSendsOnLostTransition(t *testing.T) {
	log := &callLog{}
	lead := quotedLead()
	lead.Status = domain.StatusNewLead
	machine := &fakeMachine{log: log, lead: lead,
		quoteErr: apperr.Conflict("lead is no longer in status New_Lead")}
	engine := &fakeEngine{quote: quotes.Quote{
		Pricing:      quotes.Pricing{StandardCents: 150000, DiscountCents: 127500},
		EmailSubject: "Your performance media quote",
		EmailContent: "Here is your quote.",
		SMSContent:   "Your quote is ready.",
	}}
	dispatcher := &fakeDispatcher{results: []outreach.ChannelResult{
		{Channel: outreach.ChannelEmail, MessageID: "m-1"},
		{Channel: outreach.ChannelSMS, MessageID: "m-2"},
	}}
	orch := newTestOrchestrator(machine, engine, &fakeClassifier{log: log}, dispatcher)

	err := orch.ProcessNewLead(context.Background(), lead)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.KindConflict))

	// Both sends went out before the transition failed; both must appear in
	// the audit trail against the original lead.
	require.Len(t, machine.recorded, 2)
	for _, rec := range machine.recorded {
		require.Equal(t, lead.ID, rec.LeadID)
		require.Equal(t, "outbound", rec.Direction)
	}
	require.Equal(t, outreach.ChannelEmail, machine.recorded[0].Channel)
	require.Equal(t, outreach.ChannelSMS, machine.recorded[1].Channel)
}
