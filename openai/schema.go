package openai

import (
	"encoding/json"
	"strings"
)

// Message roles accepted on the chat completion surface.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reasons reported by the inference backend.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
)

type (
	// ChatCompletionRequest is an OpenAI style chat completion request.
	ChatCompletionRequest struct {
		Model       string        `json:"model"`
		Messages    []ChatMessage `json:"messages"`
		Tools       []Tool        `json:"tools,omitempty"`
		ToolChoice  any           `json:"tool_choice,omitempty"`
		Stream      bool          `json:"stream,omitempty"`
		MaxTokens   *int          `json:"max_tokens,omitempty"`
		Temperature *float64      `json:"temperature,omitempty"`
		TopP        *float64      `json:"top_p,omitempty"`
		Stop        any           `json:"stop,omitempty"`
		User        string        `json:"user,omitempty"`
	}

	// ChatMessage is one conversation message; Content is either a plain string
	// or a list of typed parts.
	ChatMessage struct {
		Role       string     `json:"role"`
		Content    Content    `json:"content,omitempty"`
		ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
		ToolCallID string     `json:"tool_call_id,omitempty"`
		Name       string     `json:"name,omitempty"`
	}

	// Content carries either a string or []ContentPart on the wire.
	Content struct {
		Text  string
		Parts []ContentPart
	}

	// ContentPart is one typed content element.
	ContentPart struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	}

	// ToolCall is a completed tool invocation record attached to an assistant message.
	ToolCall struct {
		ID       string       `json:"id"`
		Type     string       `json:"type"`
		Function FunctionCall `json:"function"`
	}

	// FunctionCall holds the invoked function name and its raw argument JSON.
	FunctionCall struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	}

	// Tool advertises a callable function to the model.
	Tool struct {
		Type     string             `json:"type"`
		Function FunctionDefinition `json:"function"`
	}

	// FunctionDefinition describes a function tool.
	FunctionDefinition struct {
		Name        string          `json:"name"`
		Description string          `json:"description,omitempty"`
		Parameters  json.RawMessage `json:"parameters,omitempty"`
	}
)

// StreamResponse is one decoded streaming chunk.
type (
	StreamResponse struct {
		ID      string         `json:"id,omitempty"`
		Object  string         `json:"object,omitempty"`
		Created int64          `json:"created,omitempty"`
		Model   string         `json:"model,omitempty"`
		Choices []StreamChoice `json:"choices"`
	}

	StreamChoice struct {
		Index        int         `json:"index"`
		Delta        StreamDelta `json:"delta"`
		FinishReason string      `json:"finish_reason,omitempty"`
	}

	StreamDelta struct {
		Role      string          `json:"role,omitempty"`
		Content   string          `json:"content,omitempty"`
		ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
	}

	// ToolCallDelta is one incremental fragment of a streamed tool call.
	ToolCallDelta struct {
		Index    int          `json:"index"`
		ID       string       `json:"id,omitempty"`
		Type     string       `json:"type,omitempty"`
		Function FunctionCall `json:"function"`
	}
)

// FirstChoice returns the first choice or nil when the chunk carries none.
func (r *StreamResponse) FirstChoice() *StreamChoice {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return &r.Choices[0]
}

// IsTerminalFinishReason reports whether the finish reason ends the whole
// conversation. Only stop and length do; other reasons such as tool_calls or
// content_filter leave the conversation open for another turn.
func IsTerminalFinishReason(reason string) bool {
	return reason == FinishReasonStop || reason == FinishReasonLength
}

// MarshalJSON encodes Content as a bare string when no typed parts are present.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Parts) > 0 {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts both the string and the part-list content encodings.
func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &c.Parts)
	}
	return json.Unmarshal(data, &c.Text)
}

// IsEmpty reports whether content carries neither text nor parts.
func (c Content) IsEmpty() bool {
	return c.Text == "" && len(c.Parts) == 0
}

// TextContent builds string content.
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent builds typed part content.
func PartsContent(parts ...ContentPart) Content {
	return Content{Parts: parts}
}
