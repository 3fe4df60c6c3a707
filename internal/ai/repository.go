package ai

import (
	"context"
	"errors"

	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and manages AI model configuration rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a model config repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const modelColumns = `id, provider, model_id, is_primary, is_fallback, is_active, created_at, updated_at`

func scanModel(row pgx.Row) (ModelConfig, error) {
	var m ModelConfig
	err := row.Scan(&m.ID, &m.Provider, &m.ModelID, &m.IsPrimary, &m.IsFallback, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// List returns all model configs ordered primary-first.
func (r *Repository) List(ctx context.Context) ([]ModelConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+modelColumns+`
		FROM ai_model_configs
		ORDER BY is_primary DESC, is_fallback DESC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]ModelConfig, 0)
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, m)
	}
	return configs, rows.Err()
}

// ActiveModels resolves the active primary model and, when configured, the
// active fallback. A missing primary is a configuration error; a missing
// fallback is not (the fallback return is nil).
func (r *Repository) ActiveModels(ctx context.Context) (ModelConfig, *ModelConfig, error) {
	primary, err := scanModel(r.pool.QueryRow(ctx, `
		SELECT `+modelColumns+`
		FROM ai_model_configs
		WHERE is_primary = true AND is_active = true
		LIMIT 1
	`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ModelConfig{}, nil, apperr.Configuration("no primary AI model configured")
		}
		return ModelConfig{}, nil, err
	}

	fallback, err := scanModel(r.pool.QueryRow(ctx, `
		SELECT `+modelColumns+`
		FROM ai_model_configs
		WHERE is_fallback = true AND is_active = true AND id <> $1
		LIMIT 1
	`, primary.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return primary, nil, nil
		}
		return ModelConfig{}, nil, err
	}

	return primary, &fallback, nil
}

// CreateModelParams are the inputs for registering a model config.
type CreateModelParams struct {
	Provider   string
	ModelID    string
	IsPrimary  bool
	IsFallback bool
}

// Create registers a model config. When the new config is primary, any
// existing primary is demoted in the same transaction so at most one primary
// exists.
func (r *Repository) Create(ctx context.Context, params CreateModelParams) (ModelConfig, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ModelConfig{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if params.IsPrimary {
		if _, err := tx.Exec(ctx, `UPDATE ai_model_configs SET is_primary = false, updated_at = now() WHERE is_primary = true`); err != nil {
			return ModelConfig{}, err
		}
	}

	m, err := scanModel(tx.QueryRow(ctx, `
		INSERT INTO ai_model_configs (provider, model_id, is_primary, is_fallback, is_active)
		VALUES ($1, $2, $3, $4, true)
		RETURNING `+modelColumns+`
	`, params.Provider, params.ModelID, params.IsPrimary, params.IsFallback))
	if err != nil {
		return ModelConfig{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ModelConfig{}, err
	}
	return m, nil
}

// SetActive toggles a model config's availability.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ai_model_configs SET is_active = $2, updated_at = now() WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("model config not found")
	}
	return nil
}

// Delete removes a model config.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ai_model_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("model config not found")
	}
	return nil
}
