package scriptagent

// GenerateRequest contains the parameters for one LLM collaborator call.
type GenerateRequest struct {
	// Messages contains the conversation history.
	// Each message has a Role (user/assistant) and Blocks.
	Messages []Message

	// Model is the model identifier (e.g., "claude-haiku-4-5-20251001")
	Model string

	// System is the system instruction text sent with every call.
	System string

	// Params contains request parameters (max_tokens, declared tools).
	// Provider adapters extract what they support from this unified struct.
	Params *RequestParams
}
