package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/mcp-bridge/internal/collection"
	"github.com/viant/mcp-protocol/schema"
)

// Toolset hosts in-process tools behind the same Operations surface as a remote
// MCP server connection, so the registry treats both alike.
type Toolset struct {
	tools *collection.SyncMap[string, *localTool]
}

type localTool struct {
	definition schema.Tool
	handle     func(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error)
}

// NewToolset creates an empty in-process toolset.
func NewToolset() *Toolset {
	return &Toolset{tools: collection.NewSyncMap[string, *localTool]()}
}

// ListTools returns the definitions of every hosted tool.
func (t *Toolset) ListTools(_ context.Context, _ *string) (*schema.ListToolsResult, error) {
	result := &schema.ListToolsResult{}
	t.tools.Range(func(_ string, tool *localTool) bool {
		result.Tools = append(result.Tools, tool.definition)
		return true
	})
	return result, nil
}

// CallTool executes a hosted tool.
func (t *Toolset) CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error) {
	tool, ok := t.tools.Get(params.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTool, params.Name)
	}
	return tool.handle(ctx, params.Arguments)
}

// RegisterTool adds a typed tool; the input schema is derived from T's fields.
func RegisterTool[T any](set *Toolset, name, description string, handler func(ctx context.Context, input *T) (*schema.CallToolResult, error)) error {
	inputSchema, err := InputSchemaFor(new(T))
	if err != nil {
		return fmt.Errorf("failed to create schema for tool %v: %w", name, err)
	}
	definition := schema.Tool{
		Name:        name,
		Description: &description,
		InputSchema: inputSchema,
	}
	set.tools.Put(name, &localTool{
		definition: definition,
		handle: func(ctx context.Context, arguments map[string]interface{}) (*schema.CallToolResult, error) {
			data, err := json.Marshal(arguments)
			if err != nil {
				return nil, err
			}
			input := new(T)
			if err := json.Unmarshal(data, input); err != nil {
				return nil, fmt.Errorf("invalid arguments for tool %v: %w", name, err)
			}
			return handler(ctx, input)
		},
	})
	return nil
}
