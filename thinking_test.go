package scriptagent

import "testing"

func TestAspectForStepCycles(t *testing.T) {
	// The cycle has period 7: step 8 revisits the aspect of step 1.
	for step := 1; step <= 7; step++ {
		if AspectForStep(step) != AspectForStep(step+7) {
			t.Errorf("step %d and %d should share an aspect", step, step+7)
		}
	}

	seen := make(map[string]bool)
	for step := 1; step <= 7; step++ {
		seen[AspectForStep(step)] = true
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 distinct aspects in one cycle, got %d", len(seen))
	}
}

func TestReasoningStepAspect(t *testing.T) {
	withBranch := ReasoningStep{StepNumber: 3, Branch: "the train scene"}
	if got := withBranch.Aspect(); got != "the train scene" {
		t.Errorf("Aspect with branch = %q, want declared branch", got)
	}

	without := ReasoningStep{StepNumber: 3}
	if got := without.Aspect(); got != AspectForStep(3) {
		t.Errorf("Aspect without branch = %q, want cycle aspect %q", got, AspectForStep(3))
	}
}

func TestTrackerRecordNonFinal(t *testing.T) {
	tracker := NewReasoningTracker()

	result := tracker.Record(ReasoningStep{
		Thought:    "the reveal reframes every earlier panel",
		StepNumber: 2,
		TotalSteps: 5,
	})

	if result["status"] != "thought_recorded" {
		t.Errorf("status = %v, want thought_recorded", result["status"])
	}
	if result["suggested_next_aspect"] != AspectForStep(3) {
		t.Errorf("suggested_next_aspect = %v, want %q", result["suggested_next_aspect"], AspectForStep(3))
	}
	if result["steps_remaining"] != 3 {
		t.Errorf("steps_remaining = %v, want 3", result["steps_remaining"])
	}
	if tracker.Len() != 1 {
		t.Errorf("tracker.Len() = %d, want 1", tracker.Len())
	}
}

func TestTrackerRecordFinalSynthesizesAndResets(t *testing.T) {
	tracker := NewReasoningTracker()

	tracker.Record(ReasoningStep{Thought: "setup", StepNumber: 1, TotalSteps: 3})
	tracker.Record(ReasoningStep{Thought: "motive", StepNumber: 2, TotalSteps: 3})
	result := tracker.Record(ReasoningStep{Thought: "close", StepNumber: 3, TotalSteps: 3, IsFinal: true})

	if result["status"] != "thinking_complete" {
		t.Fatalf("status = %v, want thinking_complete", result["status"])
	}
	chain, ok := result["thinking_chain"].([]map[string]interface{})
	if !ok {
		t.Fatalf("thinking_chain has wrong type %T", result["thinking_chain"])
	}
	if len(chain) != 3 {
		t.Errorf("chain length = %d, want 3", len(chain))
	}
	if chain[0]["thought"] != "setup" || chain[2]["thought"] != "close" {
		t.Errorf("chain order wrong: %v", chain)
	}
	if result["steps_taken"] != 3 {
		t.Errorf("steps_taken = %v, want 3", result["steps_taken"])
	}

	// The final step closes the session: the next chain starts clean.
	if tracker.Len() != 0 {
		t.Errorf("tracker.Len() after final = %d, want 0", tracker.Len())
	}
}
