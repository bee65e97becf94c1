package scriptagent

// Stop reason constants. Providers normalize their stop indicators to these;
// anything else passes through verbatim and is treated like end_turn by the
// tool loop.
const (
	StopReasonToolUse = "tool_use"
	StopReasonEndTurn = "end_turn"
)

// GenerateResponse contains the LLM collaborator's reply.
type GenerateResponse struct {
	// Blocks is the ordered list of content blocks returned by the provider
	Blocks []*Block

	// Model is the model that was used (may differ from request if aliased)
	Model string

	// InputTokens is the number of tokens in the input
	InputTokens int

	// OutputTokens is the number of tokens in the output
	OutputTokens int

	// StopReason indicates why generation stopped (e.g., "end_turn", "tool_use")
	StopReason string

	// ResponseMetadata contains provider-specific response data
	ResponseMetadata map[string]interface{}
}

// RequestsTools returns true when the reply asks the host to execute tools.
func (r *GenerateResponse) RequestsTools() bool {
	return r.StopReason == StopReasonToolUse
}

// ToolUses returns every tool_use block in the reply, in order. A single
// reply may carry several (parallel fan-out).
func (r *GenerateResponse) ToolUses() []*Block {
	var uses []*Block
	for _, b := range r.Blocks {
		if b.IsToolUseBlock() {
			uses = append(uses, b)
		}
	}
	return uses
}

// FirstText returns the first block that carries textual content, regardless
// of the concrete block variant. The second return is false when the reply
// carries no text at all.
func (r *GenerateResponse) FirstText() (string, bool) {
	for _, b := range r.Blocks {
		if b.TextContent != nil {
			return *b.TextContent, true
		}
	}
	return "", false
}
