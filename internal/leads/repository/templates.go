package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTemplateNotFound = errors.New("follow-up template not found")

const templateColumns = `id, sequence, name, email_subject, email_body, sms_body, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (FollowUpTemplate, error) {
	var t FollowUpTemplate
	err := row.Scan(&t.ID, &t.Sequence, &t.Name, &t.EmailSubject, &t.EmailBody, &t.SMSBody, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// TemplateBySequence returns the active template for a follow-up step.
func (r *Repository) TemplateBySequence(ctx context.Context, sequence int) (FollowUpTemplate, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM follow_up_templates
		WHERE sequence = $1 AND is_active = true
	`, sequence))
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUpTemplate{}, ErrTemplateNotFound
	}
	return tpl, err
}

func (r *Repository) ListTemplates(ctx context.Context) ([]FollowUpTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+` FROM follow_up_templates ORDER BY sequence ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]FollowUpTemplate, 0)
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}

func (r *Repository) CountTemplates(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM follow_up_templates`).Scan(&count)
	return count, err
}

// SaveTemplate upserts by sequence so the admin API and the YAML seeder
// share one write path.
func (r *Repository) SaveTemplate(ctx context.Context, params SaveTemplateParams) (FollowUpTemplate, error) {
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO follow_up_templates (sequence, name, email_subject, email_body, sms_body, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sequence) DO UPDATE SET
			name = EXCLUDED.name,
			email_subject = EXCLUDED.email_subject,
			email_body = EXCLUDED.email_body,
			sms_body = EXCLUDED.sms_body,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING `+templateColumns+`
	`, params.Sequence, params.Name, params.EmailSubject, params.EmailBody, params.SMSBody, params.IsActive))
	if err != nil {
		return FollowUpTemplate{}, err
	}
	return tpl, nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM follow_up_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
