// Package tool indexes MCP tools across their hosting servers and exposes them
// both as MCP definitions and as OpenAI function tools.
package tool

import (
	"context"
	"errors"

	"github.com/viant/mcp-protocol/schema"
)

// ErrUnknownTool indicates an invocation could not be dispatched to any
// registered MCP server. Callers treat it as a soft failure, not a crash.
var ErrUnknownTool = errors.New("unknown tool")

// Invoker executes a named tool with its raw argument JSON.
type Invoker interface {
	Invoke(ctx context.Context, name string, argumentsJSON string) (*schema.CallToolResult, error)
}

// Operations is the narrow MCP surface the registry needs from a server
// connection or an in-process toolset.
type Operations interface {
	ListTools(ctx context.Context, cursor *string) (*schema.ListToolsResult, error)
	CallTool(ctx context.Context, params *schema.CallToolRequestParams) (*schema.CallToolResult, error)
}
