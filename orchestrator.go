package scriptagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/panelnarrator/scriptagent-go/search"
)

// Phase names the stages of the conversation state machine.
type Phase string

const (
	PhaseAnalysis         Phase = "analysis"
	PhaseForcedSearch     Phase = "forced_search"
	PhaseClarification    Phase = "clarification"
	PhaseConfirmation     Phase = "confirmation"
	PhaseScriptGeneration Phase = "script_generation"
	PhaseRevision         Phase = "revision"
	PhaseDone             Phase = "done"
)

// MaxClarificationRounds caps the clarification loop. Exceeding it forces the
// transition to confirmation with whatever analysis is available.
const MaxClarificationRounds = 5

// SkipSentinel is the clarification answer meaning "use best judgment".
const SkipSentinel = "skip"

// OrchestratorConfig wires one conversation.
type OrchestratorConfig struct {
	// Provider is the LLM collaborator. Required.
	Provider Provider

	// Model is the model identifier passed on every call. Required.
	Model string

	// Search serves the web_search tool. Optional; without it the tool
	// reports structured errors and the collaborator adapts.
	Search search.Client

	// Prompts overrides the embedded prompt pack. Optional.
	Prompts *PromptPack

	// MaxTokens per collaborator call (default 4096).
	MaxTokens int

	Logger *zap.Logger
}

// Outcome is what a phase operation surfaces to the caller.
type Outcome struct {
	// Phase is the conversation's phase after the operation.
	Phase Phase

	// Analysis is the latest analysis payload (clarification outcomes).
	Analysis *Analysis

	// Questions are the outstanding clarification questions, when any.
	Questions []string

	// Outline is the confirmation outline awaiting a directive.
	Outline *Confirmation

	// OutlineSizeWarning is set when the outline falls outside the 8-14
	// beat range. The outline is still surfaced; the caller decides.
	OutlineSizeWarning bool

	// Script is the parsed script document (revision and done outcomes).
	Script *Script

	// ScriptPayload is the normalized raw script JSON, ready to persist.
	ScriptPayload string
}

// Orchestrator is the top-level phase state machine for one conversation.
// It owns its state exclusively; run one Orchestrator per conversation and
// never share it across goroutines.
type Orchestrator struct {
	provider Provider
	model    string
	prompts  *PromptPack
	logger   *zap.Logger

	loop       *ToolLoop
	dispatcher *Dispatcher

	phase               Phase
	history             History
	clarificationRounds int
	initialPrompt       string

	analysis      *Analysis
	outline       *Confirmation
	script        *Script
	scriptPayload string
}

// NewOrchestrator creates a conversation orchestrator. The provider handle
// and model are explicit configuration, so multiple conversations can run
// independently without shared state.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("orchestrator: provider is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("orchestrator: model is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	prompts := cfg.Prompts
	if prompts == nil {
		var err error
		prompts, err = DefaultPrompts()
		if err != nil {
			return nil, err
		}
	}

	tools, err := DomainTools()
	if err != nil {
		return nil, err
	}

	dispatcher := NewDispatcher(DispatcherConfig{
		Search:      cfg.Search,
		Tracker:     NewReasoningTracker(),
		SubProvider: cfg.Provider,
		SubModel:    cfg.Model,
		Logger:      cfg.Logger,
	})

	loop := NewToolLoop(ToolLoopConfig{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		System:     prompts.System,
		Tools:      tools,
		Dispatcher: dispatcher,
		MaxTokens:  cfg.MaxTokens,
		Logger:     cfg.Logger,
	})

	return &Orchestrator{
		provider:   cfg.Provider,
		model:      cfg.Model,
		prompts:    prompts,
		logger:     cfg.Logger,
		loop:       loop,
		dispatcher: dispatcher,
		phase:      PhaseAnalysis,
	}, nil
}

// Phase returns the conversation's current phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// History returns the append-only conversation log.
func (o *Orchestrator) History() History {
	return o.history
}

// ClarificationRounds returns how many clarification rounds have run.
func (o *Orchestrator) ClarificationRounds() int {
	return o.clarificationRounds
}

// Start runs the analysis turn followed by the unconditional forced-search
// turn, then transitions to clarification or confirmation.
func (o *Orchestrator) Start(ctx context.Context, initialPrompt string) (*Outcome, error) {
	if o.phase == PhaseDone {
		return nil, ErrConversationDone
	}
	if o.phase != PhaseAnalysis {
		return nil, fmt.Errorf("start in phase %s: %w", o.phase, ErrWrongPhase)
	}
	if strings.TrimSpace(initialPrompt) == "" {
		return nil, fmt.Errorf("orchestrator: initial prompt is required")
	}

	o.initialPrompt = initialPrompt
	return o.runAnalysis(ctx, initialPrompt)
}

func (o *Orchestrator) runAnalysis(ctx context.Context, prompt string) (*Outcome, error) {
	o.logger.Info("analysis turn", zap.String("model", o.model))

	payload, err := o.turn(ctx, prompt, PayloadPhaseAnalysis)
	if err != nil {
		return nil, err
	}

	switch PayloadPhase(payload) {
	case PayloadPhaseAnalysis:
		analysis, err := ParseAnalysis(payload)
		if err != nil {
			return nil, err
		}
		o.analysis = analysis
		return o.runForcedSearch(ctx)

	case PayloadPhaseConfirmation:
		// Collaborator skipped ahead to the outline.
		return o.adoptConfirmation(payload)

	case PayloadPhaseScript:
		return o.adoptScript(payload)

	default:
		return nil, &MalformedResponseError{Phase: PayloadPhaseAnalysis, Raw: payload}
	}
}

// runForcedSearch issues the mandatory fact-verification turn. This step is
// never skipped, even under high confidence: it guarantees the catalogue
// reference is always attempted.
func (o *Orchestrator) runForcedSearch(ctx context.Context) (*Outcome, error) {
	o.phase = PhaseForcedSearch
	o.logger.Info("forced search turn")

	text, history, err := o.loop.RunTurn(ctx, o.history, strings.TrimSpace(o.prompts.ForcedSearch))
	if err != nil {
		return nil, err
	}
	o.history = history

	// A malformed forced-search reply is tolerated: the previous analysis
	// stands and the conversation moves on.
	if payload, ok := ExtractJSON(text); ok && PayloadPhase(payload) == PayloadPhaseAnalysis {
		if analysis, err := ParseAnalysis(payload); err == nil {
			o.analysis = analysis
		}
	} else {
		o.logger.Warn("forced search reply carried no analysis payload, keeping previous analysis")
	}

	if o.analysis.HasQuestions() {
		o.phase = PhaseClarification
		return &Outcome{
			Phase:     PhaseClarification,
			Analysis:  o.analysis,
			Questions: o.analysis.QuestionsForUser,
		}, nil
	}
	return o.requestConfirmation(ctx)
}

// AnswerClarification sends the caller's answer (or the skip sentinel) as a
// new turn. The reply's own phase tag decides the transition; after
// MaxClarificationRounds the transition to confirmation is forced.
func (o *Orchestrator) AnswerClarification(ctx context.Context, answer string) (*Outcome, error) {
	if o.phase == PhaseDone {
		return nil, ErrConversationDone
	}
	if o.phase != PhaseClarification {
		return nil, fmt.Errorf("answer clarification in phase %s: %w", o.phase, ErrWrongPhase)
	}

	if answer == "" || strings.EqualFold(strings.TrimSpace(answer), SkipSentinel) {
		answer = strings.TrimSpace(o.prompts.SkipAnswer)
	}

	o.clarificationRounds++
	o.logger.Info("clarification round", zap.Int("round", o.clarificationRounds))

	payload, err := o.turn(ctx, answer, PayloadPhaseAnalysis)
	if err != nil {
		return nil, err
	}

	switch PayloadPhase(payload) {
	case PayloadPhaseAnalysis:
		analysis, err := ParseAnalysis(payload)
		if err != nil {
			return nil, err
		}
		o.analysis = analysis

		if !analysis.HasQuestions() {
			return o.requestConfirmation(ctx)
		}
		if o.clarificationRounds >= MaxClarificationRounds {
			// Round cap exceeded: recovered by forcing the transition,
			// never surfaced as an error.
			o.logger.Warn("clarification round cap reached, forcing confirmation",
				zap.Int("rounds", o.clarificationRounds))
			return o.requestConfirmation(ctx)
		}
		return &Outcome{
			Phase:     PhaseClarification,
			Analysis:  analysis,
			Questions: analysis.QuestionsForUser,
		}, nil

	case PayloadPhaseConfirmation:
		return o.adoptConfirmation(payload)

	case PayloadPhaseScript:
		return o.adoptScript(payload)

	default:
		return nil, &MalformedResponseError{Phase: PayloadPhaseAnalysis, Raw: payload}
	}
}

// requestConfirmation asks the collaborator for the phase-2 outline. On a
// malformed reply the phase falls back to clarification so the caller can
// steer with another message instead of being stranded.
func (o *Orchestrator) requestConfirmation(ctx context.Context) (*Outcome, error) {
	o.logger.Info("requesting outline")

	payload, err := o.turn(ctx, strings.TrimSpace(o.prompts.ConfirmationRequest), PayloadPhaseConfirmation)
	if err != nil {
		o.phase = PhaseClarification
		return nil, err
	}

	switch {
	case PayloadPhase(payload) == PayloadPhaseConfirmation:
		return o.adoptConfirmation(payload)
	case isScriptPayload(payload):
		return o.adoptScript(payload)
	default:
		o.phase = PhaseClarification
		return nil, &MalformedResponseError{Phase: PayloadPhaseConfirmation, Raw: payload}
	}
}

// ConfirmationDirective is the caller's decision on the surfaced outline.
type ConfirmationDirective struct {
	kind     string
	feedback string
	prompt   string
}

// AcceptOutline approves the outline and moves to script generation.
func AcceptOutline() ConfirmationDirective {
	return ConfirmationDirective{kind: "accept"}
}

// AdjustOutline sends feedback and re-requests the outline.
func AdjustOutline(feedback string) ConfirmationDirective {
	return ConfirmationDirective{kind: "adjust", feedback: feedback}
}

// RestartConversation clears all conversation state and starts over.
// An empty freshPrompt reuses the original prompt.
func RestartConversation(freshPrompt string) ConfirmationDirective {
	return ConfirmationDirective{kind: "restart", prompt: freshPrompt}
}

// DecideConfirmation applies the caller's directive to the pending outline.
func (o *Orchestrator) DecideConfirmation(ctx context.Context, directive ConfirmationDirective) (*Outcome, error) {
	if o.phase == PhaseDone {
		return nil, ErrConversationDone
	}
	if o.phase != PhaseConfirmation {
		return nil, fmt.Errorf("decide confirmation in phase %s: %w", o.phase, ErrWrongPhase)
	}

	switch directive.kind {
	case "accept":
		return o.generateScript(ctx)

	case "adjust":
		payload, err := o.turn(ctx, o.prompts.FormatAdjustOutline(directive.feedback), PayloadPhaseConfirmation)
		if err != nil {
			return nil, err
		}
		switch {
		case PayloadPhase(payload) == PayloadPhaseConfirmation:
			return o.adoptConfirmation(payload)
		case isScriptPayload(payload):
			return o.adoptScript(payload)
		default:
			return nil, &MalformedResponseError{Phase: PayloadPhaseConfirmation, Raw: payload}
		}

	case "restart":
		o.reset()
		prompt := directive.prompt
		if strings.TrimSpace(prompt) == "" {
			prompt = o.initialPrompt
		} else {
			o.initialPrompt = prompt
		}
		o.logger.Info("conversation restarted")
		return o.runAnalysis(ctx, prompt)

	default:
		return nil, fmt.Errorf("unknown confirmation directive %q", directive.kind)
	}
}

// generateScript requests the full phase-3 script. A first extraction failure
// triggers one stricter retry turn before the error is surfaced.
func (o *Orchestrator) generateScript(ctx context.Context) (*Outcome, error) {
	o.phase = PhaseScriptGeneration
	o.logger.Info("generating script")

	text, history, err := o.loop.RunTurn(ctx, o.history, strings.TrimSpace(o.prompts.ScriptRequest))
	if err != nil {
		return nil, err
	}
	o.history = history

	payload, ok := ExtractJSON(text)
	if !ok || !isScriptPayload(payload) {
		o.logger.Warn("script payload extraction failed, retrying once")

		text, history, err = o.loop.RunTurn(ctx, o.history, strings.TrimSpace(o.prompts.ScriptRetry))
		if err != nil {
			return nil, err
		}
		o.history = history

		payload, ok = ExtractJSON(text)
		if !ok || !isScriptPayload(payload) {
			o.phase = PhaseConfirmation // allow the caller to accept again
			return nil, &MalformedResponseError{Phase: PayloadPhaseScript, Raw: text}
		}
	}

	outcome, err := o.adoptScript(payload)
	if err != nil {
		// The payload looked like a script but failed validation. Same
		// recovery as extraction failure: back to confirmation so the caller
		// can accept again or adjust.
		o.logger.Warn("script payload rejected", zap.Error(err))
		o.phase = PhaseConfirmation
		return nil, &MalformedResponseError{Phase: PayloadPhaseScript, Raw: payload}
	}
	return outcome, nil
}

// ScriptDirective is the caller's decision on the generated script.
type ScriptDirective struct {
	kind     string
	feedback string
}

// AcceptScript finishes the conversation.
func AcceptScript() ScriptDirective {
	return ScriptDirective{kind: "accept"}
}

// ReviseScript sends feedback and requests a revised script.
func ReviseScript(feedback string) ScriptDirective {
	return ScriptDirective{kind: "revise", feedback: feedback}
}

// DecideScript applies the caller's directive to the generated script. The
// revision loop has no round cap: it is caller-driven and human-paced.
func (o *Orchestrator) DecideScript(ctx context.Context, directive ScriptDirective) (*Outcome, error) {
	if o.phase == PhaseDone {
		return nil, ErrConversationDone
	}
	if o.phase != PhaseRevision {
		return nil, fmt.Errorf("decide script in phase %s: %w", o.phase, ErrWrongPhase)
	}

	switch directive.kind {
	case "accept":
		o.phase = PhaseDone
		o.logger.Info("script accepted", zap.String("title", o.script.Title))
		return &Outcome{
			Phase:         PhaseDone,
			Script:        o.script,
			ScriptPayload: o.scriptPayload,
		}, nil

	case "revise":
		payload, err := o.turn(ctx, o.prompts.FormatRevisionRequest(directive.feedback), PayloadPhaseScript)
		if err != nil {
			return nil, err
		}
		if !isScriptPayload(payload) {
			return nil, &MalformedResponseError{Phase: PayloadPhaseScript, Raw: payload}
		}
		return o.adoptScript(payload)

	default:
		return nil, fmt.Errorf("unknown script directive %q", directive.kind)
	}
}

// turn runs one tool-loop turn and extracts the JSON payload, mapping
// extraction failure to MalformedResponse for the expected phase.
func (o *Orchestrator) turn(ctx context.Context, userText, expectedPhase string) (string, error) {
	text, history, err := o.loop.RunTurn(ctx, o.history, userText)
	if err != nil {
		return "", err
	}
	o.history = history

	payload, ok := ExtractJSON(text)
	if !ok {
		o.logger.Warn("payload extraction failed",
			zap.String("expected_phase", expectedPhase), zap.Int("raw_len", len(text)))
		return "", &MalformedResponseError{Phase: expectedPhase, Raw: text}
	}
	return payload, nil
}

// adoptConfirmation stores the outline and moves the phase to confirmation.
func (o *Orchestrator) adoptConfirmation(payload string) (*Outcome, error) {
	outline, err := ParseConfirmation(payload)
	if err != nil {
		return nil, err
	}
	o.outline = outline
	o.phase = PhaseConfirmation

	if !outline.OutlineInRange() {
		o.logger.Warn("outline size out of range", zap.Int("beats", len(outline.SceneOutline)))
	}

	return &Outcome{
		Phase:              PhaseConfirmation,
		Outline:            outline,
		OutlineSizeWarning: !outline.OutlineInRange(),
	}, nil
}

// adoptScript normalizes and stores a script payload, moving the phase to
// revision so the caller can accept or revise.
func (o *Orchestrator) adoptScript(payload string) (*Outcome, error) {
	script, err := ParseScript(payload)
	if err != nil {
		return nil, err
	}
	if err := script.Validate(); err != nil {
		return nil, fmt.Errorf("script payload: %w", err)
	}

	normalized, err := NormalizeScript(payload)
	if err != nil {
		return nil, fmt.Errorf("normalize script payload: %w", err)
	}

	if missing := script.MissingSourceFields(); len(missing) > 0 {
		o.logger.Warn("script is missing mandatory source fields", zap.Strings("fields", missing))
	}

	o.script = script
	o.scriptPayload = normalized
	o.phase = PhaseRevision

	return &Outcome{
		Phase:         PhaseRevision,
		Script:        script,
		ScriptPayload: normalized,
	}, nil
}

// reset clears message history and reasoning state for a restart.
func (o *Orchestrator) reset() {
	o.history = History{}
	o.dispatcher.Tracker().Reset()
	o.clarificationRounds = 0
	o.analysis = nil
	o.outline = nil
	o.script = nil
	o.scriptPayload = ""
	o.phase = PhaseAnalysis
}

// isScriptPayload recognizes script payloads even when the model forgot the
// phase tag but produced scenes.
func isScriptPayload(payload string) bool {
	return PayloadPhase(payload) == PayloadPhaseScript || gjson.Get(payload, "scenes").Exists()
}
