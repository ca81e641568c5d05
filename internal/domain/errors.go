package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMalformedCallback   = errors.New("malformed callback")
	ErrUnsupportedKind     = errors.New("unsupported generation kind")
)
