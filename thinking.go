package scriptagent

import (
	"fmt"
	"sync"
)

// The fixed aspect cycle for structured thinking. The aspect for a step is
// derived from its step number modulo the cycle length, never stored.
var thinkingAspects = [...]string{
	"narrative context and story setup",
	"character motivations and relationships",
	"emotional core and central themes",
	"visual storytelling and iconic moments",
	"historical significance and era context",
	"cultural impact and lasting legacy",
	"pacing and scene structure",
}

// ReasoningStep is one recorded sequential_thinking call.
type ReasoningStep struct {
	Thought    string `json:"thought"`
	StepNumber int    `json:"step_number"`
	TotalSteps int    `json:"total_steps"`
	Branch     string `json:"branch,omitempty"`
	IsFinal    bool   `json:"is_final,omitempty"`
}

// Aspect returns the step's declared branch, falling back to the cycle
// position for its step number.
func (s ReasoningStep) Aspect() string {
	if s.Branch != "" {
		return s.Branch
	}
	return AspectForStep(s.StepNumber)
}

// AspectForStep returns the cycle aspect for a 1-based step number.
// The cycle has period 7: steps 1 and 8 reference the same aspect.
func AspectForStep(stepNumber int) string {
	idx := (stepNumber - 1) % len(thinkingAspects)
	if idx < 0 {
		idx += len(thinkingAspects)
	}
	return thinkingAspects[idx]
}

// ReasoningTracker holds the ordered sequence of structured thinking steps
// for one conversation. It is scoped to that conversation and discarded with
// it, never shared across conversations. The mutex makes Record safe when a
// reply batches several thinking calls and the loop resolves them
// concurrently.
type ReasoningTracker struct {
	mu    sync.Mutex
	steps []ReasoningStep
}

// NewReasoningTracker creates an empty tracker.
func NewReasoningTracker() *ReasoningTracker {
	return &ReasoningTracker{}
}

// Len returns the number of recorded steps.
func (t *ReasoningTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.steps)
}

// Steps returns a copy of the recorded chain in arrival order.
func (t *ReasoningTracker) Steps() []ReasoningStep {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ReasoningStep, len(t.steps))
	copy(out, t.steps)
	return out
}

// Reset clears the accumulated steps. Called when a conversation restarts.
func (t *ReasoningTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = nil
}

// Record appends one step and returns the tool-result payload for the
// collaborator. Non-final steps get guidance naming the next aspect in the
// cycle plus a remaining-step count; the final step gets the full ordered
// chain as a synthesis prompt instructing the collaborator to produce its
// phase JSON.
func (t *ReasoningTracker) Record(step ReasoningStep) map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.steps = append(t.steps, step)

	if step.IsFinal {
		chain := make([]map[string]interface{}, len(t.steps))
		for i, s := range t.steps {
			chain[i] = map[string]interface{}{
				"step":    s.StepNumber,
				"aspect":  s.Aspect(),
				"thought": s.Thought,
			}
		}
		taken := len(t.steps)
		t.steps = nil

		return map[string]interface{}{
			"status":         "thinking_complete",
			"steps_taken":    taken,
			"thinking_chain": chain,
			"instruction": "Your deep analysis is complete. Now synthesize ALL of the above insights " +
				"into your structured JSON response. Let the richness of your thinking show " +
				"in the narration choices, scene mood, emotional beats, and image queries.",
		}
	}

	nextAspect := AspectForStep(step.StepNumber + 1)
	remaining := step.TotalSteps - step.StepNumber

	return map[string]interface{}{
		"status":               "thought_recorded",
		"step_recorded":        step.StepNumber,
		"steps_remaining":      remaining,
		"total_steps_so_far":   len(t.steps),
		"suggested_next_aspect": nextAspect,
		"instruction": fmt.Sprintf(
			"Step %d recorded. Continue to step %d with suggested focus: '%s'. %d step(s) remaining before is_final=true.",
			step.StepNumber, step.StepNumber+1, nextAspect, remaining),
	}
}
