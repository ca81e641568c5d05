package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"vibeflow/internal/domain"
	"vibeflow/internal/infra"
	"vibeflow/internal/middleware"
)

// Admitter is the admission contract the handlers depend on.
type Admitter interface {
	Admit(ctx context.Context, ownerID, prompt string, kind domain.GenerationKind) (*domain.Generation, int, error)
}

// Reconciler folds one raw provider callback into the store.
type Reconciler interface {
	Reconcile(ctx context.Context, raw []byte) error
}

// App bundles the handlers' dependencies.
type App struct {
	Logger       infra.Logger
	Admission    Admitter
	Reconciler   Reconciler
	Generations  domain.GenerationRepository
	Credits      domain.CreditRepository
	Transactions domain.TransactionRepository

	CreditDefaultSecs int
	GalleryLimit      int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": message, "code": code})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}
