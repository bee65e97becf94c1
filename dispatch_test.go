package scriptagent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/panelnarrator/scriptagent-go/search"
)

// fakeSearch records the last query and returns canned results.
type fakeSearch struct {
	mu         sync.Mutex
	lastQuery  string
	lastMax    int
	results    []search.Result
	err        error
}

func (f *fakeSearch) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = query
	f.lastMax = maxResults
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestDecodeToolRequest(t *testing.T) {
	tests := []struct {
		name  string
		tool  string
		input map[string]interface{}
		want  ToolRequest
	}{
		{
			name: "web search",
			tool: ToolNameWebSearch,
			input: map[string]interface{}{
				"query": "invincible #12 plot", "max_results": float64(7),
			},
			want: WebSearchRequest{Query: "invincible #12 plot", MaxResults: 7},
		},
		{
			name: "sequential thinking",
			tool: ToolNameSequentialThinking,
			input: map[string]interface{}{
				"thought": "x", "step_number": float64(2), "total_steps": float64(4), "is_final": true,
			},
			want: SequentialThinkingRequest{Thought: "x", StepNumber: 2, TotalSteps: 4, IsFinal: true},
		},
		{
			name:  "paraphrase",
			tool:  ToolNameParaphraseQuery,
			input: map[string]interface{}{"query": "gwen stacy death", "n": float64(3), "focus": "terminology"},
			want:  ParaphraseQueryRequest{Query: "gwen stacy death", N: 3, Focus: "terminology"},
		},
		{
			name:  "unknown tool",
			tool:  "time_travel",
			input: map[string]interface{}{"whatever": 1},
			want:  UnrecognizedRequest{Name: "time_travel"},
		},
		{
			name:  "malformed input decodes to zero value",
			tool:  ToolNameWebSearch,
			input: map[string]interface{}{"query": 12345},
			want:  WebSearchRequest{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeToolRequest(tt.tool, tt.input)
			if got != tt.want {
				t.Errorf("DecodeToolRequest = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})

	content, isErr := d.Dispatch(context.Background(), UnrecognizedRequest{Name: "time_travel"})
	if !isErr {
		t.Fatalf("unknown tool must be flagged as error")
	}
	if got := gjson.Get(content, "error").String(); got != "Unknown tool: 'time_travel'" {
		t.Errorf("error payload = %q", got)
	}
}

func TestDispatchWebSearchClampsResults(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		want      int
	}{
		{"zero defaults", 0, WebSearchDefaultResults},
		{"negative defaults", -3, WebSearchDefaultResults},
		{"in range passes through", 7, 7},
		{"above cap clamps", 99, WebSearchMaxResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := &fakeSearch{results: []search.Result{{Title: "t", URL: "u", Snippet: "s"}}}
			d := NewDispatcher(DispatcherConfig{Search: fs})

			content, isErr := d.Dispatch(context.Background(), WebSearchRequest{
				Query: "q", MaxResults: tt.requested,
			})
			if isErr {
				t.Fatalf("unexpected error payload: %s", content)
			}
			if fs.lastMax != tt.want {
				t.Errorf("search received max %d, want %d", fs.lastMax, tt.want)
			}
		})
	}
}

func TestDispatchWebSearchPayloadShape(t *testing.T) {
	fs := &fakeSearch{results: []search.Result{
		{Title: "Invincible #12", URL: "https://example.org/12", Snippet: "the fight"},
		{Title: "Invincible #13", URL: "https://example.org/13", Snippet: "the aftermath"},
	}}
	d := NewDispatcher(DispatcherConfig{Search: fs})

	content, isErr := d.Dispatch(context.Background(), WebSearchRequest{Query: "invincible omni-man"})
	if isErr {
		t.Fatalf("unexpected error: %s", content)
	}

	results := gjson.Get(content, "results").Array()
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Get("title").String() != "Invincible #12" ||
		results[0].Get("url").String() != "https://example.org/12" ||
		results[0].Get("snippet").String() != "the fight" {
		t.Errorf("first result fields wrong: %s", results[0].Raw)
	}
}

func TestDispatchWebSearchFailures(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		d := NewDispatcher(DispatcherConfig{})
		content, isErr := d.Dispatch(context.Background(), WebSearchRequest{Query: "q"})
		if !isErr {
			t.Fatalf("missing search client must report an error payload")
		}
		if !gjson.Get(content, "error").Exists() {
			t.Errorf("no error field in %s", content)
		}
	})

	t.Run("client failure", func(t *testing.T) {
		fs := &fakeSearch{err: fmt.Errorf("quota exceeded")}
		d := NewDispatcher(DispatcherConfig{Search: fs})
		content, isErr := d.Dispatch(context.Background(), WebSearchRequest{Query: "q"})
		if !isErr {
			t.Fatalf("search failure must report an error payload")
		}
		if got := gjson.Get(content, "error").String(); got != "quota exceeded" {
			t.Errorf("error = %q", got)
		}
	})
}

func TestDispatchSequentialThinkingRoutesToTracker(t *testing.T) {
	tracker := NewReasoningTracker()
	d := NewDispatcher(DispatcherConfig{Tracker: tracker})

	content, isErr := d.Dispatch(context.Background(), SequentialThinkingRequest{
		Thought: "alpha", StepNumber: 1, TotalSteps: 2,
	})
	if isErr {
		t.Fatalf("thinking step flagged as error: %s", content)
	}
	if tracker.Len() != 1 {
		t.Errorf("tracker did not record the step")
	}
	if gjson.Get(content, "status").String() != "thought_recorded" {
		t.Errorf("payload = %s", content)
	}
}

func TestDispatchParaphraseWithoutSubProvider(t *testing.T) {
	d := NewDispatcher(DispatcherConfig{})

	content, isErr := d.Dispatch(context.Background(), ParaphraseQueryRequest{Query: "gwen stacy", N: 3})
	if !isErr {
		t.Fatalf("missing sub provider must be an error payload")
	}

	// Graceful degradation: the original query still comes back usable.
	paraphrases := gjson.Get(content, "paraphrases").Array()
	if len(paraphrases) != 1 || paraphrases[0].String() != "gwen stacy" {
		t.Errorf("fallback paraphrases = %s", gjson.Get(content, "paraphrases").Raw)
	}
}

func TestDispatchParaphraseSubCall(t *testing.T) {
	provider := &fakeProvider{}
	provider.enqueue(textResp(`Here you go: ["death of gwen stacy asm 121", "spider-man bridge scene 1973", "gerry conway gwen stacy story"]`))

	d := NewDispatcher(DispatcherConfig{SubProvider: provider, SubModel: "fake-model"})

	content, isErr := d.Dispatch(context.Background(), ParaphraseQueryRequest{Query: "gwen stacy death", N: 3})
	if isErr {
		t.Fatalf("unexpected error payload: %s", content)
	}

	if got := gjson.Get(content, "count").Int(); got != 3 {
		t.Errorf("count = %d, want 3", got)
	}
	if got := gjson.Get(content, "original").String(); got != "gwen stacy death" {
		t.Errorf("original = %q", got)
	}

	// The sub-call is budgeted and must never declare tools: a tool cannot
	// trigger further tool use.
	sub := provider.calls()[0]
	if sub.Params == nil || sub.Params.MaxTokens == nil || *sub.Params.MaxTokens != ParaphraseMaxTokens {
		t.Errorf("sub-call max tokens not budgeted to %d", ParaphraseMaxTokens)
	}
	if len(sub.Params.Tools) != 0 {
		t.Errorf("sub-call declared tools")
	}
	prompt, _ := sub.Messages[0].FirstText()
	if !strings.Contains(prompt, "exactly 3") {
		t.Errorf("prompt does not pin the count: %q", prompt)
	}
}

func TestDispatchParaphraseClampsCount(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{1, ParaphraseMinCount},
		{0, ParaphraseMinCount},
		{9, ParaphraseMaxCount},
	}

	for _, tt := range tests {
		provider := &fakeProvider{}
		provider.enqueue(textResp(`["a", "b", "c", "d", "e", "f", "g"]`))
		d := NewDispatcher(DispatcherConfig{SubProvider: provider, SubModel: "fake-model"})

		content, isErr := d.Dispatch(context.Background(), ParaphraseQueryRequest{Query: "q", N: tt.requested})
		if isErr {
			t.Fatalf("n=%d: unexpected error: %s", tt.requested, content)
		}
		if got := gjson.Get(content, "count").Int(); got != int64(tt.want) {
			t.Errorf("n=%d: count = %d, want %d", tt.requested, got, tt.want)
		}
	}
}

func TestDispatchParaphraseSubCallFailure(t *testing.T) {
	provider := &fakeProvider{} // empty queue: sub-call errors
	d := NewDispatcher(DispatcherConfig{SubProvider: provider, SubModel: "fake-model"})

	content, isErr := d.Dispatch(context.Background(), ParaphraseQueryRequest{Query: "q", N: 2})
	if !isErr {
		t.Fatalf("sub-call failure must be an error payload")
	}
	paraphrases := gjson.Get(content, "paraphrases").Array()
	if len(paraphrases) != 1 || paraphrases[0].String() != "q" {
		t.Errorf("fallback did not preserve the original query: %s", content)
	}
}

func TestParseParaphraseList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		n    int
		want int
	}{
		{"clean array", `["a", "b", "c"]`, 5, 3},
		{"array inside prose", `Sure! ["a", "b"] done`, 5, 2},
		{"caps at n", `["a", "b", "c", "d"]`, 2, 2},
		{"skips empties", `["a", "", "  ", "b"]`, 5, 2},
		{"no array", `nothing useful`, 3, 0},
		{"not an array", `{"a": 1}`, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseParaphraseList(tt.raw, tt.n)
			if len(got) != tt.want {
				t.Errorf("parseParaphraseList(%q) = %v, want %d items", tt.raw, got, tt.want)
			}
		})
	}
}
