package scriptagent

import (
	"context"
)

// Provider is the LLM collaborator contract. The engine is strictly blocking:
// each call carries the full accumulated history and returns one complete
// reply. Timeouts and retries are the provider's concern; the engine only
// reacts to the normalized success/error outcome.
//
// Types used by this interface:
//   - GenerateRequest, Message: defined in request.go
//   - GenerateResponse: defined in response.go
type Provider interface {
	// GenerateResponse generates a complete response from the LLM provider
	// (blocking). It takes conversation context (messages) and returns
	// content blocks plus a stop reason.
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider identifier (e.g., "anthropic", "scripted")
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
