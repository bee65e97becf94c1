// Package scripted is a mock provider that replays queued responses.
// Used for testing and development without requiring real API keys: queue the
// replies a conversation should receive and drive the orchestrator against
// them deterministically. With an empty queue it falls back to lorem ipsum
// filler so long-running demos never stall.
package scripted

import (
	"context"
	"strings"
	"sync"

	loremgen "github.com/bozaro/golorem"

	scriptagent "github.com/panelnarrator/scriptagent-go"
)

// Provider replays queued responses in FIFO order. Safe for concurrent use.
type Provider struct {
	mu        sync.Mutex
	queue     []*scriptagent.GenerateResponse
	requests  []*scriptagent.GenerateRequest
	generator *loremgen.Lorem
}

// NewProvider creates an empty scripted provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() scriptagent.ProviderID {
	return scriptagent.ProviderScripted
}

// SupportsModel returns true if the model name starts with "scripted-".
// Example models: "scripted-test", "scripted-demo"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "scripted-")
}

// Enqueue appends responses to the replay queue.
func (p *Provider) Enqueue(responses ...*scriptagent.GenerateResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, responses...)
}

// EnqueueText is a shorthand for queueing a plain end_turn text reply.
func (p *Provider) EnqueueText(text string) {
	p.Enqueue(TextResponse(text))
}

// Requests returns a copy of every request seen so far, in call order.
func (p *Provider) Requests() []*scriptagent.GenerateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*scriptagent.GenerateRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Remaining reports how many queued responses are left unconsumed.
func (p *Provider) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// GenerateResponse pops the next queued response. With the queue drained it
// synthesizes a lorem ipsum text reply instead of failing.
func (p *Provider) GenerateResponse(ctx context.Context, req *scriptagent.GenerateRequest) (*scriptagent.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.SupportsModel(req.Model) {
		return nil, &scriptagent.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by scripted provider (must start with 'scripted-')",
			Err:      scriptagent.ErrInvalidModel,
		}
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	var resp *scriptagent.GenerateResponse
	if len(p.queue) > 0 {
		resp = p.queue[0]
		p.queue = p.queue[1:]
	}
	filler := p.generator
	p.mu.Unlock()

	if resp == nil {
		resp = TextResponse(filler.Paragraph(2, 4))
	}

	out := *resp
	out.Model = req.Model
	if out.InputTokens == 0 {
		out.InputTokens = estimateTokens(req.Messages)
	}
	if out.OutputTokens == 0 {
		out.OutputTokens = estimateBlocks(out.Blocks)
	}
	if out.ResponseMetadata == nil {
		out.ResponseMetadata = map[string]interface{}{
			"mock":     true,
			"provider": "scripted",
		}
	}
	return &out, nil
}

// TextResponse builds an end_turn response with one text block.
func TextResponse(text string) *scriptagent.GenerateResponse {
	return &scriptagent.GenerateResponse{
		Blocks:     []*scriptagent.Block{scriptagent.NewTextBlock(text)},
		StopReason: scriptagent.StopReasonEndTurn,
	}
}

// ToolUseResponse builds a tool_use response from (id, name, input) triples.
func ToolUseResponse(uses ...ToolUse) *scriptagent.GenerateResponse {
	blocks := make([]*scriptagent.Block, 0, len(uses))
	for _, u := range uses {
		blocks = append(blocks, scriptagent.NewToolUseBlock(u.ID, u.Name, u.Input))
	}
	return &scriptagent.GenerateResponse{
		Blocks:     blocks,
		StopReason: scriptagent.StopReasonToolUse,
	}
}

// ToolUse describes one requested tool call for ToolUseResponse.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// estimateTokens approximates input tokens by word count.
func estimateTokens(messages []scriptagent.Message) int {
	total := 0
	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.TextContent != nil {
				total += len(strings.Fields(*block.TextContent))
			}
		}
	}
	return total
}

func estimateBlocks(blocks []*scriptagent.Block) int {
	total := 0
	for _, block := range blocks {
		if block.TextContent != nil {
			total += len(strings.Fields(*block.TextContent))
		}
	}
	return total
}
