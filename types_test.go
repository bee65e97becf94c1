package scriptagent

import "testing"

func TestBlockConstructorsAndAccessors(t *testing.T) {
	text := NewTextBlock("hello")
	if !text.IsTextBlock() || text.Text() != "hello" {
		t.Errorf("text block broken: %+v", text)
	}
	if _, ok := text.GetToolUseID(); ok {
		t.Errorf("text block claims a tool_use_id")
	}

	use := NewToolUseBlock("toolu_1", ToolNameWebSearch, map[string]interface{}{"query": "q"})
	if !use.IsToolUseBlock() {
		t.Fatalf("tool_use block has type %s", use.BlockType)
	}
	if id, ok := use.GetToolUseID(); !ok || id != "toolu_1" {
		t.Errorf("tool_use_id = %q, %v", id, ok)
	}
	if name, ok := use.GetToolName(); !ok || name != ToolNameWebSearch {
		t.Errorf("tool_name = %q, %v", name, ok)
	}
	if input, ok := use.GetToolInput(); !ok || input["query"] != "q" {
		t.Errorf("input = %v, %v", input, ok)
	}

	result := NewToolResultBlock("toolu_1", `{"ok": true}`, false)
	if !result.IsToolResultBlock() {
		t.Fatalf("tool_result block has type %s", result.BlockType)
	}
	if result.Text() != `{"ok": true}` {
		t.Errorf("result content = %q", result.Text())
	}
	if id, ok := result.GetToolUseID(); !ok || id != "toolu_1" {
		t.Errorf("result tool_use_id = %q, %v", id, ok)
	}
	if isErr, _ := result.Content["is_error"].(bool); isErr {
		t.Errorf("is_error = true, want false")
	}
}

func TestMessageFirstText(t *testing.T) {
	msg := Message{Role: RoleAssistant, Blocks: []*Block{
		NewToolUseBlock("toolu_1", ToolNameWebSearch, nil),
		NewTextBlock("found it"),
	}}
	if text, ok := msg.FirstText(); !ok || text != "found it" {
		t.Errorf("FirstText = %q, %v", text, ok)
	}

	empty := Message{Role: RoleAssistant}
	if _, ok := empty.FirstText(); ok {
		t.Errorf("FirstText on empty message reported text")
	}
}

func TestHistoryAppendIsCopyOnWrite(t *testing.T) {
	base := History{}.Append(NewUserText("one"))

	// Two divergent appends from the same base must not see each other.
	left := base.Append(NewUserText("left"))
	right := base.Append(NewUserText("right"))

	if base.Len() != 1 {
		t.Errorf("base grew to %d", base.Len())
	}
	if left.Len() != 2 || right.Len() != 2 {
		t.Fatalf("branch lengths = %d, %d", left.Len(), right.Len())
	}
	if text, _ := left.Messages()[1].FirstText(); text != "left" {
		t.Errorf("left branch saw %q", text)
	}
	if text, _ := right.Messages()[1].FirstText(); text != "right" {
		t.Errorf("right branch saw %q", text)
	}
}

func TestHistoryMessagesReturnsCopy(t *testing.T) {
	h := History{}.Append(NewUserText("one"), NewUserText("two"))

	msgs := h.Messages()
	msgs[0] = NewUserText("mutated")

	if text, _ := h.Messages()[0].FirstText(); text != "one" {
		t.Errorf("mutating the returned slice reached the log: %q", text)
	}
}

func TestResponseToolHelpers(t *testing.T) {
	resp := &GenerateResponse{
		StopReason: StopReasonToolUse,
		Blocks: []*Block{
			NewTextBlock("thinking out loud"),
			NewToolUseBlock("toolu_1", ToolNameWebSearch, nil),
			NewToolUseBlock("toolu_2", ToolNameParaphraseQuery, nil),
		},
	}

	if !resp.RequestsTools() {
		t.Errorf("RequestsTools = false on tool_use stop")
	}
	uses := resp.ToolUses()
	if len(uses) != 2 {
		t.Fatalf("ToolUses = %d, want 2", len(uses))
	}
	if id, _ := uses[0].GetToolUseID(); id != "toolu_1" {
		t.Errorf("tool uses out of order")
	}
	if text, ok := resp.FirstText(); !ok || text != "thinking out loud" {
		t.Errorf("FirstText = %q, %v", text, ok)
	}

	done := &GenerateResponse{StopReason: StopReasonEndTurn}
	if done.RequestsTools() {
		t.Errorf("RequestsTools = true on end_turn")
	}
}

func TestDomainTools(t *testing.T) {
	tools, err := DomainTools()
	if err != nil {
		t.Fatalf("DomainTools: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("DomainTools = %d tools, want 3", len(tools))
	}

	names := map[string]bool{}
	for _, tool := range tools {
		if err := tool.Validate(); err != nil {
			t.Errorf("tool %s invalid: %v", tool.Name, err)
		}
		names[tool.Name] = true
	}
	for _, want := range []string{ToolNameWebSearch, ToolNameSequentialThinking, ToolNameParaphraseQuery} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}
