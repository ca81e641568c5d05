package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vibeflow/internal/domain"
	"vibeflow/internal/infra"
	"vibeflow/internal/providers"
)

// AdmissionService admits generation requests: it bootstraps the caller's
// credit account, checks the balance, starts the external job and persists
// the generation together with its debit.
type AdmissionService struct {
	credits  domain.CreditRepository
	store    domain.AdmissionStore
	adapters map[domain.GenerationKind]providers.Adapter

	defaultSeconds  int
	cost            int
	providerTimeout time.Duration
	logger          infra.Logger
}

// AdmissionOptions wires the service's collaborators and policy knobs.
type AdmissionOptions struct {
	Credits         domain.CreditRepository
	Store           domain.AdmissionStore
	Adapters        []providers.Adapter
	DefaultSeconds  int
	Cost            int
	ProviderTimeout time.Duration
	Logger          infra.Logger
}

// NewAdmissionService constructs the admission controller.
func NewAdmissionService(opts AdmissionOptions) *AdmissionService {
	adapters := make(map[domain.GenerationKind]providers.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		adapters[a.Kind()] = a
	}
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AdmissionService{
		credits:         opts.Credits,
		store:           opts.Store,
		adapters:        adapters,
		defaultSeconds:  opts.DefaultSeconds,
		cost:            opts.Cost,
		providerTimeout: timeout,
		logger:          opts.Logger,
	}
}

// Admit runs the admission sequence and returns the created generation plus
// the caller's remaining balance. Each step is a hard precondition for the
// next: no provider call without a positive balance, no writes when the
// provider call fails.
func (s *AdmissionService) Admit(ctx context.Context, ownerID, prompt string, kind domain.GenerationKind) (*domain.Generation, int, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, 0, fmt.Errorf("prompt is required")
	}
	adapter, ok := s.adapters[kind]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, kind)
	}

	remaining, err := s.credits.EnsureInitialized(ctx, ownerID, s.defaultSeconds)
	if err != nil {
		return nil, 0, fmt.Errorf("ensure credits: %w", err)
	}
	if remaining <= 0 {
		return nil, 0, domain.ErrInsufficientCredits
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()
	taskID, err := adapter.Submit(submitCtx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("provider submit failed")
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}

	now := time.Now().UTC()
	gen := &domain.Generation{
		ID:        taskID,
		OwnerID:   ownerID,
		Kind:      kind,
		Prompt:    prompt,
		Status:    domain.GenerationStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// A failure here strands the external job with no local record; the
	// reconciler discards its callbacks, so that stays harmless.
	remaining, err = s.store.CreateAndDebit(ctx, gen, s.cost)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info().
		Str("generation_id", gen.ID).
		Str("owner_id", ownerID).
		Str("kind", string(kind)).
		Int("seconds_remaining", remaining).
		Msg("generation admitted")
	return gen, remaining, nil
}
