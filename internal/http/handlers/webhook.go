package handlers

import (
	"errors"
	"io"
	"net/http"

	"vibeflow/internal/domain"
)

// maxCallbackBody caps inbound webhook payloads; the provider bodies are a
// few KB at most.
const maxCallbackBody = 1 << 20

// GenerationCallback receives provider webhooks. It is deliberately
// unauthenticated (providers cannot sign in) and answers 200 for everything
// it handled or safely discarded: a non-2xx only makes at-least-once
// providers redeliver the same bytes.
func (a *App) GenerationCallback(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}

	if err := a.Reconciler.Reconcile(r.Context(), raw); err != nil {
		if errors.Is(err, domain.ErrMalformedCallback) {
			a.error(w, http.StatusBadRequest, "malformed_callback", "unrecognized callback payload")
			return
		}
		a.Logger.Error().Err(err).Msg("callback processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "callback processing failed")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"success": true})
}
