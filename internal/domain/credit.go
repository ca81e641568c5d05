package domain

import "time"

// CreditBalance tracks the remaining generation-seconds for one user. The
// account is created implicitly on first touch and only debited by this
// service; top-ups come from an external billing collaborator.
type CreditBalance struct {
	OwnerID          string
	SecondsRemaining int
	UpdatedAt        time.Time
}

// Transaction is a billing ledger entry. This service only reads them.
type Transaction struct {
	ID          string
	OwnerID     string
	AmountCents int64
	Kind        string
	CreatedAt   time.Time
}
