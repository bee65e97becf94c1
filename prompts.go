package scriptagent

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/prompts.yaml
var promptsYAML []byte

// PromptPack holds the phase instruction text the orchestrator sends on its
// own initiative. The pack ships embedded so the library works without any
// on-disk templates; callers can still swap individual entries via
// OrchestratorConfig.Prompts.
type PromptPack struct {
	Version     string `yaml:"version"`
	LastUpdated string `yaml:"last_updated"`

	// System is the standing system instruction sent with every call.
	System string `yaml:"system"`

	// ForcedSearch is the unconditional second-turn instruction that makes
	// the collaborator verify facts and resolve the catalogue URL.
	ForcedSearch string `yaml:"forced_search"`

	// SkipAnswer substitutes for a clarification answer when the caller
	// uses the skip sentinel.
	SkipAnswer string `yaml:"skip_answer"`

	// ConfirmationRequest asks for the phase-2 outline.
	ConfirmationRequest string `yaml:"confirmation_request"`

	// AdjustOutline carries caller feedback back into the outline
	// (one %s verb for the feedback text).
	AdjustOutline string `yaml:"adjust_outline"`

	// ScriptRequest asks for the full phase-3 script, reiterating the
	// mandatory source fields.
	ScriptRequest string `yaml:"script_request"`

	// ScriptRetry is the stricter re-request sent once when script JSON
	// extraction fails.
	ScriptRetry string `yaml:"script_retry"`

	// RevisionRequest carries caller feedback on the script
	// (one %s verb for the feedback text).
	RevisionRequest string `yaml:"revision_request"`
}

var (
	defaultPrompts     *PromptPack
	defaultPromptsOnce sync.Once
	defaultPromptsErr  error
)

// DefaultPrompts parses the embedded prompt pack. Parsed once; subsequent
// calls return the cached pack.
func DefaultPrompts() (*PromptPack, error) {
	defaultPromptsOnce.Do(func() {
		var pack PromptPack
		if err := yaml.Unmarshal(promptsYAML, &pack); err != nil {
			defaultPromptsErr = fmt.Errorf("parse embedded prompts: %w", err)
			return
		}
		defaultPrompts = &pack
	})
	return defaultPrompts, defaultPromptsErr
}

// FormatAdjustOutline fills the caller's outline feedback into the adjust
// instruction.
func (p *PromptPack) FormatAdjustOutline(feedback string) string {
	return fmt.Sprintf(strings.TrimSpace(p.AdjustOutline), feedback)
}

// FormatRevisionRequest fills the caller's script feedback into the revision
// instruction.
func (p *PromptPack) FormatRevisionRequest(feedback string) string {
	return fmt.Sprintf(strings.TrimSpace(p.RevisionRequest), feedback)
}
