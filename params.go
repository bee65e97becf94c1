package scriptagent

// RequestParams carries the request parameters the engine actually tunes.
// Fields are optional pointers to distinguish "not set" from "set to zero value".
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0)
	Temperature *float64 `json:"temperature,omitempty"`

	// Tools declared to the model for this call. An empty list means the
	// model cannot request tool execution; the budget-exhausted fallback
	// and the paraphrase sub-call rely on that.
	Tools []Tool `json:"tools,omitempty"`
}

// GetMaxTokens returns MaxTokens or the given default when unset.
func (p *RequestParams) GetMaxTokens(def int) int {
	if p == nil || p.MaxTokens == nil {
		return def
	}
	return *p.MaxTokens
}

// GetTemperature returns Temperature or the given default when unset.
func (p *RequestParams) GetTemperature(def float64) float64 {
	if p == nil || p.Temperature == nil {
		return def
	}
	return *p.Temperature
}

// HasTools returns true when at least one tool is declared.
func (p *RequestParams) HasTools() bool {
	return p != nil && len(p.Tools) > 0
}
