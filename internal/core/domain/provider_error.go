package domain

import (
	"fmt"
	"net/http"
)

// ProviderError is a failed response from an embedding or generation
// provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.Status, e.Message)
}

// Unwrap classifies rejected credentials and unknown models as
// ErrInvalidConfiguration so callers stop retrying them.
func (e *ProviderError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return ErrInvalidConfiguration
	}
	return nil
}
