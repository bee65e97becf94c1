package anthropic

import (
	"testing"

	scriptagent "github.com/panelnarrator/scriptagent-go"
)

func TestConvertToAnthropicMessages(t *testing.T) {
	messages := []scriptagent.Message{
		scriptagent.NewUserText("find the issue number"),
		{
			Role: scriptagent.RoleAssistant,
			Blocks: []*scriptagent.Block{
				scriptagent.NewTextBlock("checking"),
				scriptagent.NewToolUseBlock("toolu_1", "web_search", map[string]interface{}{"query": "q"}),
			},
		},
		{
			Role: scriptagent.RoleUser,
			Blocks: []*scriptagent.Block{
				scriptagent.NewToolResultBlock("toolu_1", `{"results": []}`, false),
			},
		},
	}

	converted, err := convertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("convertToAnthropicMessages: %v", err)
	}
	if len(converted) != 3 {
		t.Fatalf("converted %d messages, want 3", len(converted))
	}
	if converted[0].Role != "user" || converted[1].Role != "assistant" || converted[2].Role != "user" {
		t.Errorf("roles = %s/%s/%s", converted[0].Role, converted[1].Role, converted[2].Role)
	}
	if len(converted[1].Content) != 2 {
		t.Errorf("assistant message blocks = %d, want 2", len(converted[1].Content))
	}
}

func TestConvertToAnthropicMessagesRejectsBrokenBlocks(t *testing.T) {
	tests := []struct {
		name string
		msg  scriptagent.Message
	}{
		{
			name: "text block without content",
			msg: scriptagent.Message{Role: scriptagent.RoleUser, Blocks: []*scriptagent.Block{
				{BlockType: scriptagent.BlockTypeText},
			}},
		},
		{
			name: "tool_use without id",
			msg: scriptagent.Message{Role: scriptagent.RoleAssistant, Blocks: []*scriptagent.Block{
				{BlockType: scriptagent.BlockTypeToolUse, Content: map[string]interface{}{"tool_name": "x"}},
			}},
		},
		{
			name: "unknown role",
			msg:  scriptagent.Message{Role: "system", Blocks: []*scriptagent.Block{scriptagent.NewTextBlock("x")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := convertToAnthropicMessages([]scriptagent.Message{tt.msg}); err == nil {
				t.Errorf("broken message accepted")
			}
		})
	}
}

func TestConvertTools(t *testing.T) {
	tools, err := scriptagent.DomainTools()
	if err != nil {
		t.Fatalf("DomainTools: %v", err)
	}

	converted, err := convertTools(tools)
	if err != nil {
		t.Fatalf("convertTools: %v", err)
	}
	if len(converted) != len(tools) {
		t.Fatalf("converted %d tools, want %d", len(converted), len(tools))
	}

	for i, tool := range converted {
		if tool.OfTool == nil {
			t.Fatalf("tool %d is not a custom tool", i)
		}
		if string(tool.OfTool.Name) != tools[i].Name {
			t.Errorf("tool %d name = %q, want %q", i, tool.OfTool.Name, tools[i].Name)
		}
		if len(tool.OfTool.InputSchema.Required) == 0 {
			t.Errorf("tool %d lost its required fields", i)
		}
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := NewProvider(""); err == nil {
		t.Fatalf("empty API key accepted")
	}

	p, err := NewProvider("sk-ant-test")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if !p.SupportsModel("claude-sonnet-4-5") {
		t.Errorf("claude model rejected")
	}
	if p.SupportsModel("gpt-4o") {
		t.Errorf("foreign model accepted")
	}
}
