package repository

import (
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/leads/domain"
)

type Lead struct {
	ID                  uuid.UUID
	FirstName           string
	LastName            string
	Email               string
	Phone               *string
	SchoolName          *string
	ProgramType         *string
	EstimatedPerformers *int
	EarlyBirdDeadline   *time.Time
	EventDate           *time.Time
	Status              domain.Status
	FollowUpCount       int
	ReplyDetected       bool
	LastCommunication   *time.Time
	QuoteSentDate       *time.Time
	PaymentDate         *time.Time
	InvoiceStatus       *string
	ExternalCustomerID  *string
	ExternalInvoiceID   *string
	StandardRateCents   *int64
	DiscountRateCents   *int64
	AISuggestedMessage  *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FullName is used for personalization and billing display names.
func (l Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}

type UpsertLeadParams struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               *string
	SchoolName          *string
	ProgramType         *string
	EstimatedPerformers *int
	EarlyBirdDeadline   *time.Time
	EventDate           *time.Time
}

// TransitionStamps carries the column updates that ride along with a status
// change. Nil fields are left untouched.
type TransitionStamps struct {
	TouchLastCommunication bool
	IncrementFollowUpCount bool
	SetQuoteSentDate       bool
	SetPaymentDate         bool
	ReplyDetected          *bool
	InvoiceStatus          *string
	ExternalInvoiceID      *string
	StandardRateCents      *int64
	DiscountRateCents      *int64
	AISuggestedMessage     *string
}

type CommunicationRecord struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	Channel   string
	Direction string
	Subject   *string
	Body      string
	Metadata  map[string]any
	CreatedAt time.Time
}

type AppendCommunicationParams struct {
	LeadID    uuid.UUID
	Channel   string
	Direction string
	Subject   *string
	Body      string
	Metadata  map[string]any
}

type FollowUpTemplate struct {
	ID           uuid.UUID
	Sequence     int
	Name         string
	EmailSubject string
	EmailBody    string
	SMSBody      string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type SaveTemplateParams struct {
	Sequence     int
	Name         string
	EmailSubject string
	EmailBody    string
	SMSBody      string
	IsActive     bool
}
