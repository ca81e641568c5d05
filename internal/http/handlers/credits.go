package handlers

import "net/http"

// CreditsGet returns the caller's remaining balance, creating the account
// with the default allotment on first touch just like admission does.
func (a *App) CreditsGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	remaining, err := a.Credits.EnsureInitialized(r.Context(), userID, a.CreditDefaultSecs)
	if err != nil {
		a.Logger.Error().Err(err).Str("owner_id", userID).Msg("credits lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load credits")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"seconds_remaining": remaining})
}
