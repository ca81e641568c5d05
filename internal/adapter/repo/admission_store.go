package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vibeflow/internal/domain"
)

// AdmissionStorePG implements domain.AdmissionStore: the generation insert
// and the balance debit commit together or not at all.
type AdmissionStorePG struct {
	pool *pgxpool.Pool
}

// NewAdmissionStore creates the transactional admission store.
func NewAdmissionStore(pool *pgxpool.Pool) *AdmissionStorePG {
	return &AdmissionStorePG{pool: pool}
}

// CreateAndDebit inserts the generation and debits its cost in one
// transaction. ErrInsufficientCredits is returned, with nothing written,
// when a concurrent admission drained the balance after the caller's
// pre-check.
func (s *AdmissionStorePG) CreateAndDebit(ctx context.Context, gen *domain.Generation, cost int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, qInsertGeneration,
		gen.ID,
		gen.OwnerID,
		gen.Kind,
		gen.Prompt,
		gen.Status,
	); err != nil {
		return 0, err
	}

	var remaining int
	if err := tx.QueryRow(ctx, qDebitCredits, gen.OwnerID, cost).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientCredits
		}
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return remaining, nil
}
