package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vibeflow/internal/domain"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Kind   string `json:"kind"`
}

type generateResponse struct {
	Success          bool   `json:"success"`
	ID               string `json:"id"`
	Status           string `json:"status"`
	SecondsRemaining int    `json:"seconds_remaining"`
}

type generationView struct {
	ID                string    `json:"id"`
	Kind              string    `json:"kind"`
	Prompt            string    `json:"prompt"`
	Status            string    `json:"status"`
	ResultURL         string    `json:"result_url,omitempty"`
	SecondaryMediaURL string    `json:"secondary_media_url,omitempty"`
	FailReason        string    `json:"fail_reason,omitempty"`
	Title             string    `json:"title,omitempty"`
	DurationSeconds   float64   `json:"duration_seconds,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GenerationsCreate admits a new generation request.
func (a *App) GenerationsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}
	kind := domain.GenerationKind(req.Kind)
	if req.Kind == "" {
		kind = domain.GenerationKindVideo
	}
	if !kind.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported kind")
		return
	}

	gen, remaining, err := a.Admission.Admit(r.Context(), userID, req.Prompt, kind)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusForbidden, "insufficient_credits", "insufficient credits")
		return
	case errors.Is(err, domain.ErrUnsupportedKind):
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported kind")
		return
	case errors.Is(err, domain.ErrProviderUnavailable):
		a.error(w, http.StatusBadGateway, "provider_unavailable", "generation provider unavailable")
		return
	default:
		a.Logger.Error().Err(err).Msg("admission failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		Success:          true,
		ID:               gen.ID,
		Status:           string(gen.Status),
		SecondsRemaining: remaining,
	})
}

// GenerationStatus returns the lifecycle state of one generation. A job
// owned by someone else reads as not found, so probing ids reveals nothing.
func (a *App) GenerationStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}

	gen, err := a.loadOwnedGeneration(r, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "generation not found")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load generation")
		return
	}

	a.json(w, http.StatusOK, generationView{
		ID:                gen.ID,
		Kind:              string(gen.Kind),
		Prompt:            gen.Prompt,
		Status:            string(gen.Status),
		ResultURL:         gen.ResultURL,
		SecondaryMediaURL: gen.SecondaryMediaURL,
		FailReason:        gen.FailReason,
		Title:             gen.Title,
		DurationSeconds:   gen.DurationSeconds,
		CreatedAt:         gen.CreatedAt,
		UpdatedAt:         gen.UpdatedAt,
	})
}

func (a *App) loadOwnedGeneration(r *http.Request, id, userID string) (*domain.Generation, error) {
	gen, err := a.Generations.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if gen.OwnerID != userID {
		return nil, domain.ErrNotFound
	}
	return gen, nil
}
