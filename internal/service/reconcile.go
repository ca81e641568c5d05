package service

import (
	"context"
	"fmt"

	"vibeflow/internal/domain"
	"vibeflow/internal/infra"
	"vibeflow/internal/providers"
)

// ReconcileService folds provider callbacks into the generation store. The
// adapters are tried in order, so the more specific payload shapes must come
// first; the reconciler itself never inspects raw payloads.
type ReconcileService struct {
	generations domain.GenerationRepository
	adapters    []providers.Adapter
	logger      infra.Logger
}

// NewReconcileService constructs the callback reconciler.
func NewReconcileService(generations domain.GenerationRepository, adapters []providers.Adapter, logger infra.Logger) *ReconcileService {
	return &ReconcileService{
		generations: generations,
		adapters:    adapters,
		logger:      logger,
	}
}

// Reconcile normalizes one raw callback body and applies it. Unknown task
// ids and already-terminal generations are discarded without error, because
// providers deliver at least once and a non-2xx answer would only make them
// retry the same bytes. Only a payload no adapter can place, or one missing
// its correlation id, is reported as malformed.
func (s *ReconcileService) Reconcile(ctx context.Context, raw []byte) error {
	for _, adapter := range s.adapters {
		patch, claimed, err := adapter.DecodeCallback(raw)
		if !claimed {
			continue
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("kind", string(adapter.Kind())).Msg("callback rejected")
			return err
		}

		applied, err := s.generations.ApplyCallback(ctx, *patch)
		if err != nil {
			s.logger.Error().Err(err).Str("generation_id", patch.ID).Msg("callback apply failed")
			return fmt.Errorf("apply callback: %w", err)
		}
		if !applied {
			// Duplicate delivery, or an orphan admitted externally but
			// never recorded locally. Both are expected; ack and move on.
			s.logger.Info().Str("generation_id", patch.ID).Msg("callback discarded")
			return nil
		}

		s.logger.Info().
			Str("generation_id", patch.ID).
			Str("status", string(patch.Status)).
			Msg("callback applied")
		return nil
	}
	return fmt.Errorf("%w: unrecognized payload shape", domain.ErrMalformedCallback)
}
