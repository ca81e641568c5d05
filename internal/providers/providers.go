package providers

import (
	"context"

	"vibeflow/internal/domain"
)

// Adapter translates between the generation core and one external provider.
// Submit starts a job and returns the provider's task id. DecodeCallback
// inspects a raw callback body: claimed reports whether the payload is this
// provider's shape at all, and err is only meaningful for claimed payloads
// (a claimed-but-broken body, e.g. one missing its correlation id, decodes
// to a domain.ErrMalformedCallback).
type Adapter interface {
	Kind() domain.GenerationKind
	Submit(ctx context.Context, prompt string) (taskID string, err error)
	DecodeCallback(raw []byte) (patch *domain.CallbackPatch, claimed bool, err error)
}
