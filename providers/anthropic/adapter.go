package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	scriptagent "github.com/panelnarrator/scriptagent-go"
)

// convertToAnthropicMessages converts library messages to Anthropic SDK format.
func convertToAnthropicMessages(messages []scriptagent.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for i, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Blocks))

		for j, block := range msg.Blocks {
			switch block.BlockType {
			case scriptagent.BlockTypeText:
				if block.TextContent == nil {
					return nil, fmt.Errorf("message %d, block %d: text block missing text_content", i, j)
				}
				blocks = append(blocks, anthropic.NewTextBlock(*block.TextContent))

			case scriptagent.BlockTypeToolUse:
				toolUseID, ok := block.GetToolUseID()
				if !ok {
					return nil, fmt.Errorf("message %d, block %d: tool_use block missing tool_use_id", i, j)
				}
				toolName, ok := block.GetToolName()
				if !ok {
					return nil, fmt.Errorf("message %d, block %d: tool_use block missing tool_name", i, j)
				}
				input, ok := block.GetToolInput()
				if !ok {
					return nil, fmt.Errorf("message %d, block %d: tool_use block missing input", i, j)
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(toolUseID, input, toolName))

			case scriptagent.BlockTypeToolResult:
				toolUseID, ok := block.GetToolUseID()
				if !ok {
					return nil, fmt.Errorf("message %d, block %d: tool_result block missing tool_use_id", i, j)
				}

				isError := false
				if errFlag, ok := block.Content["is_error"].(bool); ok {
					isError = errFlag
				}

				var resultContent string
				if block.TextContent != nil {
					resultContent = *block.TextContent
				} else if contentStr, ok := block.Content["content"].(string); ok {
					resultContent = contentStr
				}

				blocks = append(blocks, anthropic.NewToolResultBlock(toolUseID, resultContent, isError))

			default:
				// Unknown block types are dropped rather than failing the call.
			}
		}

		var message anthropic.MessageParam
		switch msg.Role {
		case scriptagent.RoleUser:
			message = anthropic.NewUserMessage(blocks...)
		case scriptagent.RoleAssistant:
			message = anthropic.NewAssistantMessage(blocks...)
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, msg.Role)
		}

		result = append(result, message)
	}

	return result, nil
}

// convertAnthropicBlock converts a single Anthropic ContentBlockUnion to
// library Block format. Block types the conversation engine has no use for
// (thinking, server tool results) collapse to nil and are skipped.
func convertAnthropicBlock(content anthropic.ContentBlockUnion) *scriptagent.Block {
	switch content.Type {
	case "text":
		return scriptagent.NewTextBlock(content.Text)

	case "thinking":
		// Extended thinking arrives unsolicited on some models; surface the
		// text so the reply is never silently empty.
		if content.Thinking == "" {
			return nil
		}
		return scriptagent.NewTextBlock(content.Thinking)

	case "tool_use":
		return scriptagent.NewToolUseBlock(content.ID, content.Name, decodeToolInput(content))

	default:
		return nil
	}
}

// decodeToolInput decodes the SDK's raw JSON tool input into a generic map.
// A decode failure yields an empty map; the dispatcher then reports the
// malformed call back to the model as a tool error.
func decodeToolInput(content anthropic.ContentBlockUnion) map[string]interface{} {
	input := make(map[string]interface{})
	if len(content.Input) == 0 {
		return input
	}
	if err := json.Unmarshal(content.Input, &input); err != nil {
		return map[string]interface{}{}
	}
	return input
}

// convertFromAnthropicResponse converts an Anthropic response to library format.
func convertFromAnthropicResponse(msg *anthropic.Message) *scriptagent.GenerateResponse {
	blocks := make([]*scriptagent.Block, 0, len(msg.Content))
	for _, content := range msg.Content {
		if block := convertAnthropicBlock(content); block != nil {
			blocks = append(blocks, block)
		}
	}

	responseMetadata := make(map[string]interface{})
	if msg.StopSequence != "" {
		responseMetadata["stop_sequence"] = msg.StopSequence
	}
	if msg.Usage.CacheCreationInputTokens > 0 {
		responseMetadata["cache_creation_input_tokens"] = int(msg.Usage.CacheCreationInputTokens)
	}
	if msg.Usage.CacheReadInputTokens > 0 {
		responseMetadata["cache_read_input_tokens"] = int(msg.Usage.CacheReadInputTokens)
	}

	return &scriptagent.GenerateResponse{
		Blocks:           blocks,
		Model:            string(msg.Model),
		InputTokens:      int(msg.Usage.InputTokens),
		OutputTokens:     int(msg.Usage.OutputTokens),
		StopReason:       string(msg.StopReason),
		ResponseMetadata: responseMetadata,
	}
}
