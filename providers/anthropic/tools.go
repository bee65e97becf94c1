package anthropic

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	scriptagent "github.com/panelnarrator/scriptagent-go"
)

// convertTools converts library Tool declarations to Anthropic SDK format.
// Every conversation tool is a custom client-side tool; the engine executes
// them itself and replies with tool_result blocks.
func convertTools(tools []scriptagent.Tool) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for i, tool := range tools {
		if err := tool.Validate(); err != nil {
			return nil, fmt.Errorf("tool %d (%s): %w", i, tool.Name, err)
		}

		// InputSchema carries a full JSON schema; Anthropic wants properties
		// and required lifted out, with the rest as extra fields.
		schema := anthropic.ToolInputSchemaParam{
			Properties:  tool.InputSchema["properties"],
			ExtraFields: make(map[string]any),
		}

		if required, ok := tool.InputSchema["required"].([]interface{}); ok {
			schema.Required = make([]string, 0, len(required))
			for _, v := range required {
				if str, ok := v.(string); ok {
					schema.Required = append(schema.Required, str)
				}
			}
		} else if required, ok := tool.InputSchema["required"].([]string); ok {
			schema.Required = required
		}

		for key, value := range tool.InputSchema {
			if key != "type" && key != "properties" && key != "required" {
				schema.ExtraFields[key] = value
			}
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if tool.Description != "" {
			if toolParam.OfTool == nil {
				toolParam.OfTool = &anthropic.ToolParam{}
			}
			toolParam.OfTool.Description = anthropic.String(tool.Description)
		}

		result = append(result, toolParam)
	}

	return result, nil
}
