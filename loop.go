package scriptagent

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MaxToolIterations bounds the tool-driven request cycle for one turn. When
// the collaborator still requests tools after the cap, the loop answers the
// pending requests with a budget-exhausted notice and forces one final call
// with no tools declared, guaranteeing a textual reply.
const MaxToolIterations = 15

const budgetExhaustedNotice = "Tool budget for this turn is exhausted. Do not request further tool calls; " +
	"answer now using the information already gathered."

// ToolLoopConfig wires one turn executor.
type ToolLoopConfig struct {
	Provider   Provider
	Model      string
	System     string
	Tools      []Tool
	Dispatcher *Dispatcher

	// MaxTokens for each collaborator call (default 4096).
	MaxTokens int

	Logger *zap.Logger
}

// ToolLoop executes one logical turn: send the accumulated history plus the
// new user content to the collaborator with tools declared, resolve every
// requested tool batch, and return the reply text once the collaborator
// stops requesting tools.
type ToolLoop struct {
	provider   Provider
	model      string
	system     string
	tools      []Tool
	dispatcher *Dispatcher
	maxTokens  int
	logger     *zap.Logger
}

// NewToolLoop creates a turn executor.
func NewToolLoop(cfg ToolLoopConfig) *ToolLoop {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &ToolLoop{
		provider:   cfg.Provider,
		model:      cfg.Model,
		system:     cfg.System,
		tools:      cfg.Tools,
		dispatcher: cfg.Dispatcher,
		maxTokens:  cfg.MaxTokens,
		logger:     cfg.Logger,
	}
}

// RunTurn appends userText to the history, drives the bounded tool loop, and
// returns the final reply text together with the grown history. The iteration
// counter resets every turn.
func (l *ToolLoop) RunTurn(ctx context.Context, history History, userText string) (string, History, error) {
	history = history.Append(NewUserText(userText))

	resp, err := l.call(ctx, history, true)
	if err != nil {
		return "", history, err
	}

	iteration := 0
	for resp.RequestsTools() && iteration < MaxToolIterations {
		iteration++

		uses := resp.ToolUses()
		l.logger.Debug("tool batch requested",
			zap.Int("iteration", iteration), zap.Int("requests", len(uses)))

		results := l.dispatchBatch(ctx, uses)

		// Append the raw assistant reply and the full result batch before
		// the next collaborator call: every tool_use block must be answered
		// by exactly one tool_result, id-matched, in the immediately
		// following user message.
		history = history.Append(
			Message{Role: RoleAssistant, Blocks: resp.Blocks},
			Message{Role: RoleUser, Blocks: results},
		)

		resp, err = l.call(ctx, history, true)
		if err != nil {
			return "", history, err
		}
	}

	if resp.RequestsTools() {
		// Budget exhausted with tools still requested: answer the pending
		// requests synthetically and force a final no-tools call so the
		// turn cannot end without a text block.
		l.logger.Warn("tool budget exhausted, forcing no-tools reply",
			zap.Int("iterations", iteration))

		synthetic := make([]*Block, 0, len(resp.ToolUses()))
		for _, use := range resp.ToolUses() {
			id, _ := use.GetToolUseID()
			synthetic = append(synthetic, NewToolResultBlock(id, budgetExhaustedNotice, true))
		}

		history = history.Append(
			Message{Role: RoleAssistant, Blocks: resp.Blocks},
			Message{Role: RoleUser, Blocks: synthetic},
		)

		resp, err = l.call(ctx, history, false)
		if err != nil {
			return "", history, err
		}
		// This reply is final regardless of any further tool requests.
	}

	history = history.Append(Message{Role: RoleAssistant, Blocks: resp.Blocks})

	text, ok := resp.FirstText()
	if !ok {
		return "", history, fmt.Errorf("turn ended after %d tool iterations: %w", iteration, ErrNoTextProduced)
	}

	return text, history, nil
}

// dispatchBatch resolves every tool_use block in one reply. Requests fan out
// concurrently (handlers are safe for concurrent use) and results are
// reassembled in request order with id correspondence preserved.
func (l *ToolLoop) dispatchBatch(ctx context.Context, uses []*Block) []*Block {
	results := make([]*Block, len(uses))

	var wg sync.WaitGroup
	for i, use := range uses {
		wg.Add(1)
		go func(i int, use *Block) {
			defer wg.Done()

			id, _ := use.GetToolUseID()
			name, _ := use.GetToolName()
			input, _ := use.GetToolInput()

			content, isErr := l.dispatcher.Dispatch(ctx, DecodeToolRequest(name, input))
			results[i] = NewToolResultBlock(id, content, isErr)
		}(i, use)
	}
	wg.Wait()

	return results
}

// call issues one collaborator request. withTools controls whether the tool
// schemas are declared; the budget-exhausted fallback and nothing else omits
// them.
func (l *ToolLoop) call(ctx context.Context, history History, withTools bool) (*GenerateResponse, error) {
	params := &RequestParams{MaxTokens: &l.maxTokens}
	if withTools {
		params.Tools = l.tools
	}

	return l.provider.GenerateResponse(ctx, &GenerateRequest{
		Messages: history.Messages(),
		Model:    l.model,
		System:   l.system,
		Params:   params,
	})
}
