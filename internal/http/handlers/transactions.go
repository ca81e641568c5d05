package handlers

import (
	"fmt"
	"net/http"
)

const transactionsPageSize = 50

// TransactionsList returns the caller's billing history, newest first. The
// ledger is written by the billing collaborator; amounts are stored in
// cents.
func (a *App) TransactionsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	transactions, err := a.Transactions.ListByOwner(r.Context(), userID, transactionsPageSize)
	if err != nil {
		a.Logger.Error().Err(err).Str("owner_id", userID).Msg("transactions fetch failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load transactions")
		return
	}

	items := make([]map[string]any, 0, len(transactions))
	for _, tr := range transactions {
		items = append(items, map[string]any{
			"id":             tr.ID,
			"amount_cents":   tr.AmountCents,
			"amount_display": fmt.Sprintf("%.2f", float64(tr.AmountCents)/100),
			"kind":           tr.Kind,
			"created_at":     tr.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"transactions": items})
}
