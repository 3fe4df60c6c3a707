// Package notification sends operator emails in response to domain events.
// It subscribes to the bus so domain modules never touch email directly.
package notification

import (
	"context"
	"fmt"

	"leadflow_backend/internal/email"
	"leadflow_backend/internal/events"
	platformevents "leadflow_backend/platform/events"
	"leadflow_backend/platform/logger"
)

type Module struct {
	sender        email.Sender
	operatorEmail string
	log           *logger.Logger
}

// NewModule wires the subscribers. An empty operator email disables the
// module entirely.
func NewModule(bus platformevents.Bus, sender email.Sender, operatorEmail string, log *logger.Logger) *Module {
	m := &Module{sender: sender, operatorEmail: operatorEmail, log: log}
	if operatorEmail == "" {
		log.Info("operator notifications disabled: no operator email configured")
		return m
	}

	bus.Subscribe(events.LeadCreatedEvent, platformevents.HandlerFunc(m.onLeadCreated))
	bus.Subscribe(events.LeadReplyReceivedEvent, platformevents.HandlerFunc(m.onReplyReceived))
	bus.Subscribe(events.LeadConvertedEvent, platformevents.HandlerFunc(m.onLeadConverted))
	return m
}

func (m *Module) onLeadCreated(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.LeadCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	body := fmt.Sprintf(
		"A new lead just came in.\n\nDirector: %s %s\nEmail: %s\nSchool: %s\n\nThe quote cycle has started automatically.",
		e.FirstName, e.LastName, e.Email, orDash(e.SchoolName),
	)
	return m.send(ctx, "New lead: "+e.FirstName+" "+e.LastName, "New lead received", body)
}

func (m *Module) onReplyReceived(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.LeadReplyReceived)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	body := fmt.Sprintf(
		"A director replied.\n\nLead: %s\nEmail: %s\nClassified intent: %s (confidence %.2f)\n\nReview the suggested response in the admin panel.",
		e.LeadID, e.Email, e.IntentType, e.Confidence,
	)
	return m.send(ctx, "Reply received from "+e.Email, "Lead replied", body)
}

func (m *Module) onLeadConverted(ctx context.Context, event platformevents.Event) error {
	e, ok := event.(events.LeadConverted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	body := fmt.Sprintf(
		"A lead converted!\n\nLead: %s\nBilling customer: %s\nInvoice: %s\nTotal: %s",
		e.LeadID, e.CustomerID, e.InvoiceID, email.FormatCurrencyUSD(e.TotalAmountCents),
	)
	return m.send(ctx, "Lead converted: invoice "+e.InvoiceID, "Lead converted", body)
}

func (m *Module) send(ctx context.Context, subject, heading, body string) error {
	if err := m.sender.SendOperatorEmail(ctx, m.operatorEmail, subject, heading, body); err != nil {
		m.log.Error("operator notification failed", "subject", subject, "error", err)
		return err
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
