package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadflow_backend/internal/leads/domain"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrStatusChanged means the lead's status no longer matches the
	// expected prior status; some other writer got there first.
	ErrStatusChanged = errors.New("lead status changed concurrently")
	// ErrCustomerAlreadyLinked means external_customer_id was already set.
	ErrCustomerAlreadyLinked = errors.New("lead already linked to external customer")
)

const leadColumns = `id, first_name, last_name, email, phone, school_name, program_type,
	estimated_performers, early_bird_deadline, event_date, status, follow_up_count,
	reply_detected, last_communication_date, quote_sent_date, payment_date,
	invoice_status, external_customer_id, external_invoice_id,
	standard_rate_cents, discount_rate_cents, ai_suggested_message,
	created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.SchoolName, &l.ProgramType,
		&l.EstimatedPerformers, &l.EarlyBirdDeadline, &l.EventDate, &l.Status, &l.FollowUpCount,
		&l.ReplyDetected, &l.LastCommunication, &l.QuoteSentDate, &l.PaymentDate,
		&l.InvoiceStatus, &l.ExternalCustomerID, &l.ExternalInvoiceID,
		&l.StandardRateCents, &l.DiscountRateCents, &l.AISuggestedMessage,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// UpsertByEmail inserts a lead keyed by email or refreshes contact fields on
// the existing row. The returned bool reports whether a new row was created.
// Status is never touched on the update path.
func (r *Repository) UpsertByEmail(ctx context.Context, params UpsertLeadParams) (Lead, bool, error) {
	var (
		lead    Lead
		created bool
	)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			first_name, last_name, email, phone, school_name, program_type,
			estimated_performers, early_bird_deadline, event_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = COALESCE(EXCLUDED.phone, leads.phone),
			school_name = COALESCE(EXCLUDED.school_name, leads.school_name),
			program_type = COALESCE(EXCLUDED.program_type, leads.program_type),
			estimated_performers = COALESCE(EXCLUDED.estimated_performers, leads.estimated_performers),
			early_bird_deadline = COALESCE(EXCLUDED.early_bird_deadline, leads.early_bird_deadline),
			event_date = COALESCE(EXCLUDED.event_date, leads.event_date),
			updated_at = now()
		RETURNING `+leadColumns+`, (xmax = 0) AS inserted
	`,
		params.FirstName, params.LastName, strings.ToLower(strings.TrimSpace(params.Email)),
		params.Phone, params.SchoolName, params.ProgramType,
		params.EstimatedPerformers, params.EarlyBirdDeadline, params.EventDate,
		domain.StatusNewLead,
	).Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.SchoolName, &lead.ProgramType,
		&lead.EstimatedPerformers, &lead.EarlyBirdDeadline, &lead.EventDate, &lead.Status, &lead.FollowUpCount,
		&lead.ReplyDetected, &lead.LastCommunication, &lead.QuoteSentDate, &lead.PaymentDate,
		&lead.InvoiceStatus, &lead.ExternalCustomerID, &lead.ExternalInvoiceID,
		&lead.StandardRateCents, &lead.DiscountRateCents, &lead.AISuggestedMessage,
		&lead.CreatedAt, &lead.UpdatedAt, &created,
	)
	if err != nil {
		return Lead{}, false, err
	}
	return lead, created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type ListParams struct {
	Status *domain.Status
	Limit  int
	Offset int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if params.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *params.Status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Transition performs the guarded status update. The WHERE clause pins the
// prior status, so a concurrent writer that already moved the lead makes
// this a no-op and we report ErrStatusChanged instead of clobbering.
func (r *Repository) Transition(ctx context.Context, leadID uuid.UUID, from, to domain.Status, stamps TransitionStamps) (Lead, error) {
	sets := []string{"status = $3", "updated_at = now()"}
	args := []any{leadID, from, to}

	if stamps.TouchLastCommunication {
		sets = append(sets, "last_communication_date = now()")
	}
	if stamps.IncrementFollowUpCount {
		sets = append(sets, "follow_up_count = follow_up_count + 1")
	}
	if stamps.SetQuoteSentDate {
		sets = append(sets, "quote_sent_date = now()")
	}
	if stamps.SetPaymentDate {
		sets = append(sets, "payment_date = now()")
	}
	if stamps.ReplyDetected != nil {
		args = append(args, *stamps.ReplyDetected)
		sets = append(sets, fmt.Sprintf("reply_detected = $%d", len(args)))
	}
	if stamps.InvoiceStatus != nil {
		args = append(args, *stamps.InvoiceStatus)
		sets = append(sets, fmt.Sprintf("invoice_status = $%d", len(args)))
	}
	if stamps.ExternalInvoiceID != nil {
		args = append(args, *stamps.ExternalInvoiceID)
		sets = append(sets, fmt.Sprintf("external_invoice_id = $%d", len(args)))
	}
	if stamps.StandardRateCents != nil {
		args = append(args, *stamps.StandardRateCents)
		sets = append(sets, fmt.Sprintf("standard_rate_cents = $%d", len(args)))
	}
	if stamps.DiscountRateCents != nil {
		args = append(args, *stamps.DiscountRateCents)
		sets = append(sets, fmt.Sprintf("discount_rate_cents = $%d", len(args)))
	}
	if stamps.AISuggestedMessage != nil {
		args = append(args, *stamps.AISuggestedMessage)
		sets = append(sets, fmt.Sprintf("ai_suggested_message = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE leads SET %s
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, strings.Join(sets, ", "), leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing lead from a lost race.
		if _, getErr := r.GetByID(ctx, leadID); errors.Is(getErr, ErrNotFound) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, ErrStatusChanged
	}
	return lead, err
}

// SetReplyDetected flags an inbound reply without changing status. Used when
// a reply lands before classification completes, so the scheduler backs off
// immediately.
func (r *Repository) SetReplyDetected(ctx context.Context, leadID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET reply_detected = true, last_communication_date = now(), updated_at = now()
		WHERE id = $1
	`, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetExternalCustomerID links the billing-system customer exactly once.
func (r *Repository) SetExternalCustomerID(ctx context.Context, leadID uuid.UUID, customerID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET external_customer_id = $2, updated_at = now()
		WHERE id = $1 AND external_customer_id IS NULL
	`, leadID, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, leadID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrCustomerAlreadyLinked
	}
	return nil
}

// DueForFollowUp selects leads the scheduler should contact: quote sent or
// mid-sequence, no reply, stale past the interval, under the step cap.
func (r *Repository) DueForFollowUp(ctx context.Context, intervalDays, maxSteps, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().AddDate(0, 0, -intervalDays)

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE reply_detected = false
		  AND status = ANY($1)
		  AND last_communication_date IS NOT NULL
		  AND last_communication_date < $2
		  AND follow_up_count < $3
		ORDER BY last_communication_date ASC
		LIMIT $4
	`, followUpSourceStatuses(maxSteps), cutoff, maxSteps, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func followUpSourceStatuses(maxSteps int) []string {
	statuses := []string{string(domain.StatusQuoteSent)}
	for step := 1; step < maxSteps; step++ {
		if s, err := domain.FollowUpStatus(step); err == nil {
			statuses = append(statuses, string(s))
		}
	}
	return statuses
}

func (r *Repository) AppendCommunication(ctx context.Context, params AppendCommunicationParams) (CommunicationRecord, error) {
	var rec CommunicationRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO communication_records (lead_id, channel, direction, subject, body, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, channel, direction, subject, body, metadata, created_at
	`,
		params.LeadID, params.Channel, params.Direction, params.Subject, params.Body, params.Metadata,
	).Scan(&rec.ID, &rec.LeadID, &rec.Channel, &rec.Direction, &rec.Subject, &rec.Body, &rec.Metadata, &rec.CreatedAt)
	if err != nil {
		return CommunicationRecord{}, err
	}
	return rec, nil
}

func (r *Repository) ListCommunications(ctx context.Context, leadID uuid.UUID) ([]CommunicationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, channel, direction, subject, body, metadata, created_at
		FROM communication_records
		WHERE lead_id = $1
		ORDER BY created_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]CommunicationRecord, 0)
	for rows.Next() {
		var rec CommunicationRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.Channel, &rec.Direction, &rec.Subject, &rec.Body, &rec.Metadata, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
