package domain

import "context"

// GenerationRepository defines persistence for generation records.
type GenerationRepository interface {
	Create(ctx context.Context, gen *Generation) error
	GetByID(ctx context.Context, id string) (*Generation, error)
	// ApplyCallback applies a normalized callback mutation. It returns false
	// (with a nil error) when the generation is unknown or already terminal,
	// so duplicate and orphaned deliveries are discarded without a write.
	// The check-and-write must be atomic per row.
	ApplyCallback(ctx context.Context, patch CallbackPatch) (bool, error)
	ListRecentSuccessful(ctx context.Context, limit int) ([]Generation, error)
}

// CreditRepository defines the debit-only balance ledger.
type CreditRepository interface {
	// EnsureInitialized creates the account with the default allotment when
	// absent and returns the current balance either way.
	EnsureInitialized(ctx context.Context, ownerID string, defaultSeconds int) (int, error)
	// Debit atomically subtracts amount when the balance covers it,
	// returning the new balance, or ErrInsufficientCredits without writing.
	Debit(ctx context.Context, ownerID string, amount int) (int, error)
}

// AdmissionStore couples generation creation and the balance debit into one
// atomic commit: neither a generation without its debit nor a debit without
// its generation can be observed.
type AdmissionStore interface {
	CreateAndDebit(ctx context.Context, gen *Generation, cost int) (remaining int, err error)
}

// TransactionRepository reads the billing ledger written by the external
// billing collaborator.
type TransactionRepository interface {
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]Transaction, error)
}
