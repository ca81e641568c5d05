package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"vibeflow/internal/domain"
)

// TransactionRepositoryPG implements domain.TransactionRepository. The table
// is written by the billing collaborator; this side only lists it.
type TransactionRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new transaction repository backed by PostgreSQL.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepositoryPG {
	return &TransactionRepositoryPG{pool: pool}
}

const qListTransactions = `
SELECT id, owner_id, amount_cents, kind, created_at
FROM transactions
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2;
`

// ListByOwner returns the caller's billing entries, newest first.
func (r *TransactionRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, qListTransactions, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Transaction
	for rows.Next() {
		var tr domain.Transaction
		if err := rows.Scan(&tr.ID, &tr.OwnerID, &tr.AmountCents, &tr.Kind, &tr.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, tr)
	}
	return items, rows.Err()
}
