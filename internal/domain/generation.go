package domain

import "time"

// GenerationKind enumerates supported generation categories.
type GenerationKind string

const (
	GenerationKindVideo GenerationKind = "video"
	GenerationKindMusic GenerationKind = "music"
)

// Valid reports whether the kind is one this service can route to a provider.
func (k GenerationKind) Valid() bool {
	return k == GenerationKindVideo || k == GenerationKindMusic
}

// GenerationStatus enumerates lifecycle states. The values match the states
// providers report on their callbacks, so no translation table is needed
// between the wire and the store.
type GenerationStatus string

const (
	GenerationStatusPending GenerationStatus = "pending"
	GenerationStatusWaiting GenerationStatus = "waiting"
	GenerationStatusSuccess GenerationStatus = "success"
	GenerationStatusFail    GenerationStatus = "fail"
)

// Terminal reports whether the status is absorbing. Once a generation is
// terminal no further callback may mutate it.
func (s GenerationStatus) Terminal() bool {
	return s == GenerationStatusSuccess || s == GenerationStatusFail
}

// Generation is one generation lifecycle record, from admission to terminal
// outcome. Its ID is the external provider's task identifier so callbacks,
// which carry only that id, address the row directly.
type Generation struct {
	ID                string
	OwnerID           string
	Kind              GenerationKind
	Prompt            string
	Status            GenerationStatus
	ResultURL         string
	SecondaryMediaURL string
	FailReason        string
	Title             string
	DurationSeconds   float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CallbackPatch is the canonical mutation distilled from one provider
// callback, whatever its original shape. Empty string fields mean
// "leave the stored value alone".
type CallbackPatch struct {
	ID                string
	Status            GenerationStatus
	ResultURL         string
	SecondaryMediaURL string
	FailReason        string
	Title             string
	DurationSeconds   float64
}
