package scriptagent

import (
	"errors"
	"fmt"
)

// Tool names recognized by the dispatcher.
const (
	ToolNameWebSearch          = "web_search"
	ToolNameSequentialThinking = "sequential_thinking"
	ToolNameParaphraseQuery    = "paraphrase_query"
)

// Web-search result bounds (§4.3): callers get 5 results unless they ask for
// more, and never more than 10.
const (
	WebSearchDefaultResults = 5
	WebSearchMaxResults     = 10
)

// Paraphrase sub-call bounds: 2–5 rephrasings, 300-token budget.
const (
	ParaphraseMinCount  = 2
	ParaphraseMaxCount  = 5
	ParaphraseMaxTokens = 300
)

// Tool declares a capability to the LLM collaborator (Anthropic tool format).
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Validate checks if the Tool is properly configured
func (t *Tool) Validate() error {
	if t.Name == "" {
		return errors.New("tool name is required")
	}

	if t.InputSchema == nil {
		return errors.New("tool input_schema is required")
	}

	// Validate that input_schema is a valid JSON schema object
	if schemaType, ok := t.InputSchema["type"].(string); !ok || schemaType != "object" {
		return errors.New("tool input_schema must be a JSON schema with type 'object'")
	}

	return nil
}

// NewWebSearchTool creates the web_search tool schema.
func NewWebSearchTool() (*Tool, error) {
	tool := &Tool{
		Name: ToolNameWebSearch,
		Description: "Search the web for information about comic books, manga, graphic novels, " +
			"characters, story arcs, events, issue numbers, creators, and publication dates. " +
			"Use when: the comic is recent, you need to verify specific issue numbers or credits, " +
			"multiple events share the same name, or the user mentions an indie/lesser-known title. " +
			"Tip: combine with paraphrase_query for better coverage.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Specific search query about the comic book topic",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return (default 5, max 10)",
				},
			},
			"required": []string{"query"},
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create web_search tool: %w", err)
	}

	return tool, nil
}

// NewSequentialThinkingTool creates the sequential_thinking tool schema.
func NewSequentialThinkingTool() (*Tool, error) {
	tool := &Tool{
		Name: ToolNameSequentialThinking,
		Description: "Think deeply and systematically through a topic before forming your response. " +
			"Call this tool once per thinking step. Each step should explore a DIFFERENT aspect " +
			"of the topic: narrative context, character motivations, emotional core, " +
			"visual storytelling potential, historical significance, cultural impact, " +
			"pacing and scene structure. Use 3-6 steps for most topics. " +
			"Set is_final=true on your last step, then synthesize all insights into your " +
			"structured JSON response.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"thought": map[string]interface{}{
					"type":        "string",
					"description": "Your detailed reasoning for this step. Be specific about what this aspect reveals.",
				},
				"step_number": map[string]interface{}{
					"type":        "integer",
					"description": "Current step number, starting at 1",
				},
				"total_steps": map[string]interface{}{
					"type":        "integer",
					"description": "Total number of thinking steps you plan to take (3-6 recommended)",
				},
				"branch": map[string]interface{}{
					"type":        "string",
					"description": "The aspect/angle being explored in this step",
				},
				"is_final": map[string]interface{}{
					"type":        "boolean",
					"description": "Set true on the last step to close the thinking session",
				},
			},
			"required": []string{"thought", "step_number", "total_steps"},
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create sequential_thinking tool: %w", err)
	}

	return tool, nil
}

// NewParaphraseQueryTool creates the paraphrase_query tool schema.
func NewParaphraseQueryTool() (*Tool, error) {
	tool := &Tool{
		Name: ToolNameParaphraseQuery,
		Description: "Generate N semantically diverse reformulations of a search query to maximize " +
			"search coverage. Use this BEFORE web_search when the topic is nuanced, ambiguous, " +
			"or when a single phrasing might miss important results. After receiving the " +
			"paraphrases, call web_search separately for each one.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The original search query to paraphrase",
				},
				"n": map[string]interface{}{
					"type":        "integer",
					"description": "Number of paraphrases to generate. Between 2 and 5.",
				},
				"focus": map[string]interface{}{
					"type": "string",
					"description": "Optional dimension to vary across paraphrases: 'specificity', " +
						"'perspective', or 'terminology'. Leave empty for free variation.",
				},
			},
			"required": []string{"query", "n"},
		},
	}

	if err := tool.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create paraphrase_query tool: %w", err)
	}

	return tool, nil
}

// DomainTools assembles the tool list declared to the collaborator on every
// tool-enabled call.
func DomainTools() ([]Tool, error) {
	var tools []Tool
	for _, factory := range []func() (*Tool, error){
		NewWebSearchTool,
		NewSequentialThinkingTool,
		NewParaphraseQueryTool,
	} {
		t, err := factory()
		if err != nil {
			return nil, err
		}
		tools = append(tools, *t)
	}
	return tools, nil
}
