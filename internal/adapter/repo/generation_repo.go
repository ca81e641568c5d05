package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibeflow/internal/domain"
)

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new generation repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

// Create inserts a new generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, gen *domain.Generation) error {
	_, err := r.pool.Exec(ctx, qInsertGeneration,
		gen.ID,
		gen.OwnerID,
		gen.Kind,
		gen.Prompt,
		gen.Status,
	)
	return err
}

// GetByID fetches a generation by its provider task identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	return scanGeneration(r.pool.QueryRow(ctx, qSelectGeneration, id))
}

// ApplyCallback applies a normalized callback mutation. The terminal-state
// check lives inside the UPDATE predicate, so discarding duplicates does not
// race with a concurrent delivery for the same row.
func (r *GenerationRepositoryPG) ApplyCallback(ctx context.Context, patch domain.CallbackPatch) (bool, error) {
	tag, err := r.pool.Exec(ctx, qApplyCallback,
		patch.ID,
		patch.Status,
		nullableString(patch.ResultURL),
		nullableString(patch.SecondaryMediaURL),
		nullableString(patch.FailReason),
		nullableString(patch.Title),
		nullableFloat(patch.DurationSeconds),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecentSuccessful returns the newest successful generations across all
// users, for the public gallery.
func (r *GenerationRepositoryPG) ListRecentSuccessful(ctx context.Context, limit int) ([]domain.Generation, error) {
	rows, err := r.pool.Query(ctx, qListSuccessful, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *gen)
	}
	return items, rows.Err()
}

const qInsertGeneration = `
INSERT INTO generations (id, owner_id, kind, prompt, status)
VALUES ($1, $2, $3, $4, $5);
`

const qSelectGeneration = `
SELECT id, owner_id, kind, prompt, status, result_url, secondary_media_url, fail_reason, title, duration_seconds, created_at, updated_at
FROM generations
WHERE id = $1;
`

const qApplyCallback = `
UPDATE generations
SET status = $2,
    result_url = COALESCE($3, result_url),
    secondary_media_url = COALESCE($4, secondary_media_url),
    fail_reason = COALESCE($5, fail_reason),
    title = COALESCE($6, title),
    duration_seconds = COALESCE($7, duration_seconds),
    updated_at = NOW()
WHERE id = $1
  AND status NOT IN ('success', 'fail');
`

const qListSuccessful = `
SELECT id, owner_id, kind, prompt, status, result_url, secondary_media_url, fail_reason, title, duration_seconds, created_at, updated_at
FROM generations
WHERE status = 'success'
ORDER BY created_at DESC
LIMIT $1;
`

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var gen domain.Generation
	var resultURL, secondaryURL, failReason, title sql.NullString
	var duration sql.NullFloat64
	if err := row.Scan(
		&gen.ID,
		&gen.OwnerID,
		&gen.Kind,
		&gen.Prompt,
		&gen.Status,
		&resultURL,
		&secondaryURL,
		&failReason,
		&title,
		&duration,
		&gen.CreatedAt,
		&gen.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	gen.ResultURL = resultURL.String
	gen.SecondaryMediaURL = secondaryURL.String
	gen.FailReason = failReason.String
	gen.Title = title.String
	gen.DurationSeconds = duration.Float64
	return &gen, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}
