package interfaces

import (
	"context"
	"errors"
)

// ConfigSource is a read-only location holding one configuration document,
// such as the alias table or the webhook secret.
type ConfigSource interface {
	// Fetch returns the document. It returns ErrContentNotFound if the
	// location exists but holds no document.
	Fetch(ctx context.Context) ([]byte, error)

	// LocationURI returns the source location with credentials redacted.
	LocationURI() string
}

var (
	// ErrContentNotFound is returned when the source holds no document.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when the source cannot be reached.
	ErrBackendUnavailable = errors.New("config backend unavailable")

	// ErrInvalidLocationURI is returned when a location URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid config location URI")
)
