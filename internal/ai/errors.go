package ai

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a provider failure.
type Kind int

const (
	KindTransport Kind = iota
	KindAuth
	KindRateLimit
	KindMalformedResponse
)

// String returns the kind name recorded in fallback reasoning.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "AuthError"
	case KindRateLimit:
		return "RateLimitError"
	case KindMalformedResponse:
		return "MalformedResponseError"
	default:
		return "TransportError"
	}
}

// ProviderError is returned by providers on any failed call.
type ProviderError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Message returns the underlying cause without the provider and kind prefix.
func (e *ProviderError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewError wraps err as a ProviderError of the given kind.
func NewError(provider string, kind Kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// Wrap converts any error into a ProviderError. Existing ProviderErrors are
// returned as is; deadlines and cancellations become transport failures.
func Wrap(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	return NewError(provider, KindTransport, err)
}

// KindFromStatus maps an HTTP status code returned by a provider API.
func KindFromStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	default:
		return KindTransport
	}
}

// IsTimeout reports whether err was caused by the per-call deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
