// Package events defines the domain events emitted by the lead lifecycle.
package events

import (
	"github.com/google/uuid"

	"leadflow_backend/platform/events"
)

const (
	LeadCreatedEvent       = "lead.created"
	LeadStatusChangedEvent = "lead.status_changed"
	LeadReplyReceivedEvent = "lead.reply_received"
	LeadConvertedEvent     = "lead.converted"
)

type LeadCreated struct {
	events.BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	SchoolName string    `json:"schoolName,omitempty"`
}

func (LeadCreated) EventName() string { return LeadCreatedEvent }

type LeadStatusChanged struct {
	events.BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Trigger string    `json:"trigger"`
}

func (LeadStatusChanged) EventName() string { return LeadStatusChangedEvent }

type LeadReplyReceived struct {
	events.BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Email      string    `json:"email"`
	IntentType string    `json:"intentType"`
	Confidence float64   `json:"confidence"`
}

func (LeadReplyReceived) EventName() string { return LeadReplyReceivedEvent }

type LeadConverted struct {
	events.BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	CustomerID       string    `json:"customerId"`
	InvoiceID        string    `json:"invoiceId"`
	TotalAmountCents int64     `json:"totalAmountCents"`
}

func (LeadConverted) EventName() string { return LeadConvertedEvent }
