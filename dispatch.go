package scriptagent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/panelnarrator/scriptagent-go/search"
)

// Tool requests form a closed tagged union known at compile time. The
// dispatcher matches exhaustively; an unknown name becomes the explicit
// Unrecognized variant instead of falling through a string compare.
type ToolRequest interface {
	toolRequest()
}

// WebSearchRequest asks the search collaborator for results.
type WebSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// SequentialThinkingRequest records one structured reasoning step.
type SequentialThinkingRequest struct {
	Thought    string `json:"thought"`
	StepNumber int    `json:"step_number"`
	TotalSteps int    `json:"total_steps"`
	Branch     string `json:"branch,omitempty"`
	IsFinal    bool   `json:"is_final,omitempty"`
}

// ParaphraseQueryRequest asks for N diverse reformulations of a search query.
type ParaphraseQueryRequest struct {
	Query string `json:"query"`
	N     int    `json:"n"`
	Focus string `json:"focus,omitempty"`
}

// UnrecognizedRequest is produced for tool names the engine does not know.
type UnrecognizedRequest struct {
	Name string
}

func (WebSearchRequest) toolRequest()          {}
func (SequentialThinkingRequest) toolRequest() {}
func (ParaphraseQueryRequest) toolRequest()    {}
func (UnrecognizedRequest) toolRequest()       {}

// DecodeToolRequest maps a tool name plus its raw input payload onto the
// request union. Malformed inputs decode to the zero value of the matching
// variant; the handlers clamp and default from there, mirroring how the
// collaborator-facing schemas mark most fields optional.
func DecodeToolRequest(name string, input map[string]interface{}) ToolRequest {
	raw, err := json.Marshal(input)
	if err != nil {
		raw = []byte("{}")
	}

	switch name {
	case ToolNameWebSearch:
		var req WebSearchRequest
		_ = json.Unmarshal(raw, &req)
		return req
	case ToolNameSequentialThinking:
		var req SequentialThinkingRequest
		_ = json.Unmarshal(raw, &req)
		return req
	case ToolNameParaphraseQuery:
		var req ParaphraseQueryRequest
		_ = json.Unmarshal(raw, &req)
		return req
	default:
		return UnrecognizedRequest{Name: name}
	}
}

// DispatcherConfig wires the collaborators one conversation's tools need.
// Everything is explicit per-conversation state; nothing is module-level.
type DispatcherConfig struct {
	// Search handles web_search requests. Optional; when nil the tool
	// reports a structured error payload.
	Search search.Client

	// Tracker records sequential_thinking steps. Required.
	Tracker *ReasoningTracker

	// SubProvider and SubModel serve paraphrase_query sub-calls. The
	// sub-call never declares tools, so it cannot recurse. Optional; when
	// absent the tool falls back to the original query.
	SubProvider Provider
	SubModel    string

	Logger *zap.Logger
}

// Dispatcher routes decoded tool requests to their handlers and serializes
// every outcome, success or failure, into the string content of a ToolResult.
// Handler failures never abort the tool loop.
type Dispatcher struct {
	search      search.Client
	tracker     *ReasoningTracker
	subProvider Provider
	subModel    string
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher scoped to one conversation.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = NewReasoningTracker()
	}
	return &Dispatcher{
		search:      cfg.Search,
		tracker:     cfg.Tracker,
		subProvider: cfg.SubProvider,
		subModel:    cfg.SubModel,
		logger:      cfg.Logger,
	}
}

// Tracker returns the conversation's reasoning tracker.
func (d *Dispatcher) Tracker() *ReasoningTracker {
	return d.tracker
}

// Dispatch executes one decoded tool request and returns the serialized
// result payload. The second return reports whether the payload describes a
// failure (fed back to the collaborator as is_error).
func (d *Dispatcher) Dispatch(ctx context.Context, req ToolRequest) (string, bool) {
	switch r := req.(type) {
	case WebSearchRequest:
		return d.webSearch(ctx, r)
	case SequentialThinkingRequest:
		return marshalResult(d.tracker.Record(ReasoningStep{
			Thought:    r.Thought,
			StepNumber: r.StepNumber,
			TotalSteps: r.TotalSteps,
			Branch:     r.Branch,
			IsFinal:    r.IsFinal,
		})), false
	case ParaphraseQueryRequest:
		return d.paraphrase(ctx, r)
	case UnrecognizedRequest:
		d.logger.Warn("unrecognized tool requested", zap.String("tool", r.Name))
		return marshalResult(map[string]interface{}{
			"error": fmt.Sprintf("Unknown tool: '%s'", r.Name),
		}), true
	default:
		// The union is closed; this is unreachable for decoded requests.
		return marshalResult(map[string]interface{}{
			"error": "unsupported tool request variant",
		}), true
	}
}

func (d *Dispatcher) webSearch(ctx context.Context, req WebSearchRequest) (string, bool) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = WebSearchDefaultResults
	}
	if maxResults > WebSearchMaxResults {
		maxResults = WebSearchMaxResults
	}

	if d.search == nil {
		return marshalResult(map[string]interface{}{
			"error":   "web search is not configured",
			"results": []interface{}{},
		}), true
	}

	d.logger.Debug("web search", zap.String("query", req.Query), zap.Int("max_results", maxResults))

	results, err := d.search.Search(ctx, req.Query, maxResults)
	if err != nil {
		d.logger.Warn("web search failed", zap.String("query", req.Query), zap.Error(err))
		return marshalResult(map[string]interface{}{
			"error":   err.Error(),
			"results": []interface{}{},
		}), true
	}

	items := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]interface{}{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}

	return marshalResult(map[string]interface{}{"results": items}), false
}

// Focus instructions injected into the paraphrase sub-prompt.
var paraphraseFocusInstructions = map[string]string{
	"specificity": "Vary from broad/general (topic overview) to narrow/specific " +
		"(exact issue number, creator name, publication year).",
	"perspective": "Vary the angle: one from the event's perspective, one from a character's " +
		"perspective, one from the narrative impact/legacy perspective.",
	"terminology": "Vary from technical comic-book terminology (series title, issue arc, " +
		"writer/artist credit) to casual everyday language a non-fan would use.",
	"": "Vary freely across vocabulary, angle, and specificity. " +
		"Each paraphrase should feel like it was written by a different person " +
		"approaching the same topic from a completely different starting point.",
}

func (d *Dispatcher) paraphrase(ctx context.Context, req ParaphraseQueryRequest) (string, bool) {
	n := req.N
	if n < ParaphraseMinCount {
		n = ParaphraseMinCount
	}
	if n > ParaphraseMaxCount {
		n = ParaphraseMaxCount
	}

	if d.subProvider == nil {
		return marshalResult(map[string]interface{}{
			"original":    req.Query,
			"paraphrases": []string{req.Query},
			"count":       1,
			"error":       "paraphrase_query has no sub-LLM configured",
		}), true
	}

	focusInstruction, ok := paraphraseFocusInstructions[req.Focus]
	if !ok {
		focusInstruction = paraphraseFocusInstructions[""]
	}

	prompt := fmt.Sprintf(
		"Generate exactly %d diverse search query paraphrases for this topic:\n%q\n\n"+
			"Variation instructions:\n%s\n\n"+
			"Rules:\n"+
			"- Each paraphrase must find DIFFERENT search results than the others\n"+
			"- Keep each one concise: 4-10 words, optimized for web search\n"+
			"- Domain context: comic books, manga, graphic novels\n"+
			"- Do NOT number them or add explanations\n\n"+
			"Return ONLY a valid JSON array of %d strings. Nothing else.\n"+
			`Example: ["query one here", "different angle query", "third variation"]`,
		n, req.Query, focusInstruction, n)

	maxTokens := ParaphraseMaxTokens
	// No tools on the sub-call: a tool cannot trigger further tool use.
	subReq := &GenerateRequest{
		Messages: []Message{NewUserText(prompt)},
		Model:    d.subModel,
		Params:   &RequestParams{MaxTokens: &maxTokens},
	}

	resp, err := d.subProvider.GenerateResponse(ctx, subReq)
	if err != nil {
		d.logger.Warn("paraphrase sub-call failed", zap.Error(err))
		return paraphraseFallback(req.Query, err.Error()), true
	}

	raw, ok := resp.FirstText()
	if !ok {
		return paraphraseFallback(req.Query, "sub-call produced no text"), true
	}

	paraphrases := parseParaphraseList(raw, n)
	if len(paraphrases) == 0 {
		return paraphraseFallback(req.Query, "no JSON array found in sub-call response"), true
	}

	d.logger.Debug("paraphrases generated",
		zap.String("query", req.Query), zap.Int("count", len(paraphrases)))

	return marshalResult(map[string]interface{}{
		"original":    req.Query,
		"paraphrases": paraphrases,
		"count":       len(paraphrases),
	}), false
}

// parseParaphraseList pulls at most n non-empty strings out of the sub-call
// reply: direct array parse first, then a bracket scan inside the text.
func parseParaphraseList(raw string, n int) []string {
	candidates := []string{strings.TrimSpace(raw)}
	if start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]"); start != -1 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}

	for _, candidate := range candidates {
		parsed := gjson.Parse(candidate)
		if !gjson.Valid(candidate) || !parsed.IsArray() {
			continue
		}
		var out []string
		for _, item := range parsed.Array() {
			s := strings.TrimSpace(item.String())
			if s == "" {
				continue
			}
			out = append(out, s)
			if len(out) == n {
				break
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func paraphraseFallback(query, reason string) string {
	// Graceful fallback: return the original query so the caller isn't broken.
	return marshalResult(map[string]interface{}{
		"original":    query,
		"paraphrases": []string{query},
		"count":       1,
		"error":       reason,
	})
}

// marshalResult serializes a result payload; serialization itself failing
// degrades to an error payload rather than a panic.
func marshalResult(payload map[string]interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}
