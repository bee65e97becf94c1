package scriptagent

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block type constants
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"    // LLM requests a client-executed tool call
	BlockTypeToolResult = "tool_result" // Result sent back for a tool_use block
)

// Block represents one content block inside a message.
//
// User blocks: text, tool_result
// Assistant blocks: text, tool_use
//
// The Content field stores block-type-specific structured data as a map:
// - text: empty (text in TextContent field)
// - tool_use: {"tool_use_id": "toolu_...", "tool_name": "...", "input": {...}}
// - tool_result: {"tool_use_id": "toolu_...", "is_error": false} (content in TextContent)
type Block struct {
	// BlockType indicates the type of block
	// Values: "text", "tool_use", "tool_result"
	BlockType string `json:"block_type"`

	// TextContent contains the text for text blocks and the serialized
	// result payload for tool_result blocks
	TextContent *string `json:"text_content,omitempty"`

	// Content contains type-specific structured data
	Content map[string]interface{} `json:"content,omitempty"`
}

// NewTextBlock creates a text block.
func NewTextBlock(text string) *Block {
	return &Block{
		BlockType:   BlockTypeText,
		TextContent: &text,
	}
}

// NewToolUseBlock creates a tool_use block as produced by the LLM collaborator.
func NewToolUseBlock(toolUseID, toolName string, input map[string]interface{}) *Block {
	return &Block{
		BlockType: BlockTypeToolUse,
		Content: map[string]interface{}{
			"tool_use_id": toolUseID,
			"tool_name":   toolName,
			"input":       input,
		},
	}
}

// NewToolResultBlock creates a tool_result block answering the tool_use block
// with the given id. Content is always a string; callers serialize structured
// results before building the block.
func NewToolResultBlock(toolUseID, content string, isError bool) *Block {
	return &Block{
		BlockType:   BlockTypeToolResult,
		TextContent: &content,
		Content: map[string]interface{}{
			"tool_use_id": toolUseID,
			"is_error":    isError,
		},
	}
}

// IsTextBlock returns true if this block carries plain text.
func (b *Block) IsTextBlock() bool {
	return b.BlockType == BlockTypeText
}

// IsToolUseBlock returns true if this is a tool_use block
func (b *Block) IsToolUseBlock() bool {
	return b.BlockType == BlockTypeToolUse
}

// IsToolResultBlock returns true if this is a tool_result block
func (b *Block) IsToolResultBlock() bool {
	return b.BlockType == BlockTypeToolResult
}

// Text returns the block's text content, or "" when absent.
func (b *Block) Text() string {
	if b.TextContent == nil {
		return ""
	}
	return *b.TextContent
}

// GetToolUseID returns the tool_use_id from a tool_use or tool_result block
func (b *Block) GetToolUseID() (string, bool) {
	if !b.IsToolUseBlock() && !b.IsToolResultBlock() {
		return "", false
	}
	id, ok := b.Content["tool_use_id"].(string)
	return id, ok
}

// GetToolName returns the tool_name from a tool_use block
func (b *Block) GetToolName() (string, bool) {
	if !b.IsToolUseBlock() {
		return "", false
	}
	name, ok := b.Content["tool_name"].(string)
	return name, ok
}

// GetToolInput returns the input from a tool_use block
func (b *Block) GetToolInput() (map[string]interface{}, bool) {
	if !b.IsToolUseBlock() {
		return nil, false
	}
	input, ok := b.Content["input"].(map[string]interface{})
	return input, ok
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is either "user" or "assistant"
	Role string `json:"role"`

	// Blocks is the list of content blocks for this message
	Blocks []*Block `json:"blocks"`
}

// NewUserText builds a single-text-block user message.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Blocks: []*Block{NewTextBlock(text)}}
}

// FirstText returns the text of the first block that carries textual content,
// regardless of block variant. The second return is false when no block in the
// message carries text.
func (m Message) FirstText() (string, bool) {
	for _, b := range m.Blocks {
		if b.TextContent != nil {
			return *b.TextContent, true
		}
	}
	return "", false
}

// History is the append-only conversation log. Messages are never mutated or
// removed once appended; Append copies the backing slice so earlier History
// values stay valid, and Messages hands out a fresh copy so callers cannot
// alias the log.
type History struct {
	messages []Message
}

// Append returns a new History with msgs added at the end.
func (h History) Append(msgs ...Message) History {
	combined := make([]Message, 0, len(h.messages)+len(msgs))
	combined = append(combined, h.messages...)
	combined = append(combined, msgs...)
	return History{messages: combined}
}

// Messages returns a copy of the logged messages in order.
func (h History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of logged messages.
func (h History) Len() int {
	return len(h.messages)
}
