package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibeflow/internal/domain"
)

// CreditRepositoryPG implements domain.CreditRepository.
type CreditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new credit repository backed by PostgreSQL.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepositoryPG {
	return &CreditRepositoryPG{pool: pool}
}

const qInitCredits = `
INSERT INTO credits (owner_id, seconds_remaining, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (owner_id) DO NOTHING;
`

const qSelectCredits = `
SELECT seconds_remaining FROM credits WHERE owner_id = $1;
`

// qDebitCredits only matches when the balance covers the debit, so the
// decrement is the concurrency guard: two racing admissions serialize on the
// row and the loser gets zero affected rows instead of an overdraft.
const qDebitCredits = `
UPDATE credits
SET seconds_remaining = seconds_remaining - $2,
    updated_at = NOW()
WHERE owner_id = $1
  AND seconds_remaining >= $2
RETURNING seconds_remaining;
`

// EnsureInitialized creates the account with the default allotment on first
// touch and returns the current balance.
func (r *CreditRepositoryPG) EnsureInitialized(ctx context.Context, ownerID string, defaultSeconds int) (int, error) {
	if _, err := r.pool.Exec(ctx, qInitCredits, ownerID, defaultSeconds); err != nil {
		return 0, err
	}
	var remaining int
	if err := r.pool.QueryRow(ctx, qSelectCredits, ownerID).Scan(&remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// Debit atomically subtracts amount from the balance.
func (r *CreditRepositoryPG) Debit(ctx context.Context, ownerID string, amount int) (int, error) {
	var remaining int
	if err := r.pool.QueryRow(ctx, qDebitCredits, ownerID, amount).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}
	return remaining, nil
}
