package scriptagent

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrMalformedResponse indicates JSON extraction exhausted every strategy.
	// The phase does not advance; the caller may retry the turn or abort.
	ErrMalformedResponse = errors.New("scriptagent: malformed model response")

	// ErrNoTextProduced indicates the tool loop ended with no textual content,
	// even after the forced final no-tools call. Fatal for that turn.
	ErrNoTextProduced = errors.New("scriptagent: no text produced")

	// ErrConversationDone indicates an operation was attempted on a
	// conversation that already reached its terminal phase.
	ErrConversationDone = errors.New("scriptagent: conversation is done")

	// ErrWrongPhase indicates an operation that is not valid in the
	// conversation's current phase.
	ErrWrongPhase = errors.New("scriptagent: operation not valid in current phase")

	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("scriptagent: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("scriptagent: invalid API key")

	// ErrProviderUnavailable indicates the provider service is down or unreachable.
	ErrProviderUnavailable = errors.New("scriptagent: provider unavailable")
)

// MalformedResponseError carries the raw text that defeated every extraction
// strategy, for diagnostics.
type MalformedResponseError struct {
	Phase string // The phase whose payload was expected
	Raw   string // The raw model text
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("expected %s payload but no JSON could be extracted from %d bytes of model text", e.Phase, len(e.Raw))
}

func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ProviderError represents an error from the underlying provider API.
type ProviderError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code (if applicable)
	Message    string // Error message from provider
	Retryable  bool   // Whether this error is potentially retryable
	Err        error  // Wrapped sentinel error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsMalformedResponse checks if an error means the model text carried no
// extractable payload for the expected phase.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsNoTextProduced checks if an error means a turn ended without any textual
// content.
func IsNoTextProduced(err error) bool {
	return errors.Is(err, ErrNoTextProduced)
}

// IsRetryable checks if an error is potentially retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return errors.Is(err, ErrProviderUnavailable)
}
