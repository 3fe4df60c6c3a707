// Package transport defines the request and response DTOs for the leads
// admin API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/repository"
)

// Response DTOs

type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName"`
	Email               string     `json:"email"`
	Phone               *string    `json:"phone,omitempty"`
	SchoolName          *string    `json:"schoolName,omitempty"`
	ProgramType         *string    `json:"programType,omitempty"`
	EstimatedPerformers *int       `json:"estimatedPerformers,omitempty"`
	EarlyBirdDeadline   *time.Time `json:"earlyBirdDeadline,omitempty"`
	EventDate           *time.Time `json:"eventDate,omitempty"`
	Status              string     `json:"status"`
	FollowUpCount       int        `json:"followUpCount"`
	ReplyDetected       bool       `json:"replyDetected"`
	LastCommunication   *time.Time `json:"lastCommunicationDate,omitempty"`
	QuoteSentDate       *time.Time `json:"quoteSentDate,omitempty"`
	PaymentDate         *time.Time `json:"paymentDate,omitempty"`
	InvoiceStatus       *string    `json:"invoiceStatus,omitempty"`
	ExternalCustomerID  *string    `json:"externalCustomerId,omitempty"`
	ExternalInvoiceID   *string    `json:"externalInvoiceId,omitempty"`
	StandardRateCents   *int64     `json:"standardRateCents,omitempty"`
	DiscountRateCents   *int64     `json:"discountRateCents,omitempty"`
	AISuggestedMessage  *string    `json:"aiSuggestedMessage,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                  lead.ID,
		FirstName:           lead.FirstName,
		LastName:            lead.LastName,
		Email:               lead.Email,
		Phone:               lead.Phone,
		SchoolName:          lead.SchoolName,
		ProgramType:         lead.ProgramType,
		EstimatedPerformers: lead.EstimatedPerformers,
		EarlyBirdDeadline:   lead.EarlyBirdDeadline,
		EventDate:           lead.EventDate,
		Status:              string(lead.Status),
		FollowUpCount:       lead.FollowUpCount,
		ReplyDetected:       lead.ReplyDetected,
		LastCommunication:   lead.LastCommunication,
		QuoteSentDate:       lead.QuoteSentDate,
		PaymentDate:         lead.PaymentDate,
		InvoiceStatus:       lead.InvoiceStatus,
		ExternalCustomerID:  lead.ExternalCustomerID,
		ExternalInvoiceID:   lead.ExternalInvoiceID,
		StandardRateCents:   lead.StandardRateCents,
		DiscountRateCents:   lead.DiscountRateCents,
		AISuggestedMessage:  lead.AISuggestedMessage,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	result := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		result[i] = ToLeadResponse(lead)
	}
	return result
}

type CommunicationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Channel   string         `json:"channel"`
	Direction string         `json:"direction"`
	Subject   *string        `json:"subject,omitempty"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func ToCommunicationResponses(records []repository.CommunicationRecord) []CommunicationResponse {
	result := make([]CommunicationResponse, len(records))
	for i, rec := range records {
		result[i] = CommunicationResponse{
			ID:        rec.ID,
			Channel:   rec.Channel,
			Direction: rec.Direction,
			Subject:   rec.Subject,
			Body:      rec.Body,
			Metadata:  rec.Metadata,
			CreatedAt: rec.CreatedAt,
		}
	}
	return result
}

type TemplateResponse struct {
	ID           uuid.UUID `json:"id"`
	Sequence     int       `json:"sequence"`
	Name         string    `json:"name"`
	EmailSubject string    `json:"emailSubject"`
	EmailBody    string    `json:"emailBody"`
	SMSBody      string    `json:"smsBody"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func ToTemplateResponse(t repository.FollowUpTemplate) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		Sequence:     t.Sequence,
		Name:         t.Name,
		EmailSubject: t.EmailSubject,
		EmailBody:    t.EmailBody,
		SMSBody:      t.SMSBody,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// Request DTOs

type SaveTemplateRequest struct {
	Sequence     int    `json:"sequence" validate:"required,min=1,max=10"`
	Name         string `json:"name" validate:"required,min=1,max=100"`
	EmailSubject string `json:"emailSubject" validate:"required,min=1,max=500"`
	EmailBody    string `json:"emailBody" validate:"required,min=1"`
	SMSBody      string `json:"smsBody" validate:"max=1000"`
	IsActive     *bool  `json:"isActive"`
}

func (r SaveTemplateRequest) ToParams() repository.SaveTemplateParams {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return repository.SaveTemplateParams{
		Sequence:     r.Sequence,
		Name:         r.Name,
		EmailSubject: r.EmailSubject,
		EmailBody:    r.EmailBody,
		SMSBody:      r.SMSBody,
		IsActive:     active,
	}
}
