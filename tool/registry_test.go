package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mcp-bridge/openai"
	"github.com/viant/mcp-protocol/schema"
)

type echoInput struct {
	Text   string `json:"text" description:"text to echo"`
	Repeat *int   `json:"repeat,omitempty"`
}

func newEchoToolset(t *testing.T) *Toolset {
	set := NewToolset()
	err := RegisterTool[echoInput](set, "echo", "Echoes text", func(_ context.Context, input *echoInput) (*schema.CallToolResult, error) {
		repeat := 1
		if input.Repeat != nil {
			repeat = *input.Repeat
		}
		text := ""
		for i := 0; i < repeat; i++ {
			text += input.Text
		}
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: text}}}, nil
	})
	assert.Nil(t, err)
	return set
}

func resultText(t *testing.T, result *schema.CallToolResult) string {
	if !assert.NotEmpty(t, result.Content) {
		return ""
	}
	text, ok := result.Content[0].(schema.TextContent)
	if !assert.True(t, ok, "expected text content, got %T", result.Content[0]) {
		return ""
	}
	return text.Text
}

func TestRegistryInvoke(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register(context.Background(), "local", newEchoToolset(t))
	assert.Nil(t, err)

	result, err := registry.Invoke(context.Background(), "echo", `{"text":"hi","repeat":2}`)
	assert.Nil(t, err)
	if assert.Equal(t, 1, len(result.Content)) {
		assert.Equal(t, "hihi", resultText(t, result))
	}

	_, err = registry.Invoke(context.Background(), "no_such_tool", `{}`)
	assert.ErrorIs(t, err, ErrUnknownTool)

	_, err = registry.Invoke(context.Background(), "echo", `{broken`)
	assert.NotNil(t, err)
}

func TestRegistryFirstRegistrationWins(t *testing.T) {
	registry := NewRegistry()
	first := NewToolset()
	assert.Nil(t, RegisterTool[echoInput](first, "echo", "first", func(_ context.Context, _ *echoInput) (*schema.CallToolResult, error) {
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: "first"}}}, nil
	}))
	second := NewToolset()
	assert.Nil(t, RegisterTool[echoInput](second, "echo", "second", func(_ context.Context, _ *echoInput) (*schema.CallToolResult, error) {
		return &schema.CallToolResult{Content: []schema.CallToolResultContentElem{schema.TextContent{Type: "text", Text: "second"}}}, nil
	}))

	assert.Nil(t, registry.Register(context.Background(), "alpha", first))
	assert.Nil(t, registry.Register(context.Background(), "beta", second))

	result, err := registry.Invoke(context.Background(), "echo", `{"text":"x"}`)
	assert.Nil(t, err)
	assert.Equal(t, "first", resultText(t, result))
	assert.Equal(t, 1, len(registry.Tools()))
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()
	assert.Nil(t, registry.Register(context.Background(), "local", newEchoToolset(t)))
	_, ok := registry.Lookup("echo")
	assert.True(t, ok)

	registry.Remove("local")
	_, ok = registry.Lookup("echo")
	assert.False(t, ok)
	assert.Empty(t, registry.Tools())
}

func TestRegistryAddTools(t *testing.T) {
	registry := NewRegistry()
	assert.Nil(t, registry.Register(context.Background(), "local", newEchoToolset(t)))

	request := &openai.ChatCompletionRequest{Model: "m"}
	assert.Nil(t, registry.AddTools(context.Background(), request))
	if assert.Equal(t, 1, len(request.Tools)) {
		tool := request.Tools[0]
		assert.Equal(t, "function", tool.Type)
		assert.Equal(t, "echo", tool.Function.Name)
		assert.Equal(t, "Echoes text", tool.Function.Description)

		parameters := map[string]interface{}{}
		assert.Nil(t, json.Unmarshal(tool.Function.Parameters, &parameters))
		assert.Equal(t, "object", parameters["type"])
		properties := parameters["properties"].(map[string]interface{})
		text := properties["text"].(map[string]interface{})
		assert.Equal(t, "string", text["type"])
		assert.Equal(t, "text to echo", text["description"])
		assert.Equal(t, []interface{}{"text"}, parameters["required"])
	}

	// tools already present on the request are not duplicated
	assert.Nil(t, registry.AddTools(context.Background(), request))
	assert.Equal(t, 1, len(request.Tools))
}

func TestInputSchemaFor(t *testing.T) {
	type input struct {
		Location string            `json:"location"`
		Limit    *int              `json:"limit,omitempty"`
		Tags     []string          `json:"tags,omitempty"`
		Options  map[string]string `json:"options,omitempty"`
		hidden   string
	}
	inputSchema, err := InputSchemaFor(&input{})
	assert.Nil(t, err)
	assert.Equal(t, "object", inputSchema.Type)
	assert.Equal(t, []string{"location"}, inputSchema.Required)
	assert.Contains(t, inputSchema.Properties, "location")
	assert.Contains(t, inputSchema.Properties, "limit")
	assert.Contains(t, inputSchema.Properties, "tags")
	assert.Contains(t, inputSchema.Properties, "options")
	assert.NotContains(t, inputSchema.Properties, "hidden")

	_, err = InputSchemaFor("not a struct")
	assert.NotNil(t, err)
}
