package repositories

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures coming back from an external provider so
// callers can branch on the kind instead of matching on message text.
type ErrorKind int

const (
	// ErrorKindTransient covers network and API failures worth retrying.
	ErrorKindTransient ErrorKind = iota
	// ErrorKindUnauthenticated means the user never connected the
	// integration, or the stored tokens can no longer be refreshed.
	ErrorKindUnauthenticated
	// ErrorKindNotFound means the requested remote entity does not exist.
	ErrorKindNotFound
	// ErrorKindRateLimited means the provider throttled the request.
	ErrorKindRateLimited
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnauthenticated:
		return "unauthenticated"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindRateLimited:
		return "rate_limited"
	default:
		return "transient"
	}
}

// ProviderError wraps a failure from an external collaborator with its kind
// and the provider name that produced it.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a classified provider error.
func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// IsNotConnected reports whether err indicates a missing or dead integration.
func IsNotConnected(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == ErrorKindUnauthenticated
}

// KindOf extracts the error kind, defaulting to transient for plain errors.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrorKindTransient
}
