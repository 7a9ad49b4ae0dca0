package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/mcp-bridge/internal/collection"
	"github.com/viant/mcp-bridge/openai"
	"github.com/viant/mcp-protocol/schema"
)

// Registry maps tool names to the MCP server connection that hosts them. It is
// shared across concurrent conversations and all operations are safe for
// concurrent use.
type Registry struct {
	entries *collection.SyncMap[string, *entry]
	logger  zerolog.Logger
}

type entry struct {
	server     string
	operations Operations
	definition schema.Tool
}

// RegistryOption configures a Registry.
type RegistryOption func(r *Registry)

// WithLogger sets the registry logger.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty tool registry.
func NewRegistry(options ...RegistryOption) *Registry {
	ret := &Registry{
		entries: collection.NewSyncMap[string, *entry](),
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Register discovers the tools exposed by the supplied server connection and
// indexes each by tool name. The first server to claim a name keeps it.
func (r *Registry) Register(ctx context.Context, server string, operations Operations) error {
	result, err := operations.ListTools(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list tools for %v: %w", server, err)
	}
	for i := range result.Tools {
		definition := result.Tools[i]
		if existing, ok := r.entries.Get(definition.Name); ok {
			r.logger.Warn().
				Str("tool", definition.Name).
				Str("server", server).
				Str("registeredBy", existing.server).
				Msg("duplicate tool name, keeping first registration")
			continue
		}
		r.entries.Put(definition.Name, &entry{server: server, operations: operations, definition: definition})
		r.logger.Info().Str("tool", definition.Name).Str("server", server).Msg("registered tool")
	}
	return nil
}

// Remove drops every tool registered by the named server.
func (r *Registry) Remove(server string) {
	r.entries.Range(func(name string, e *entry) bool {
		if e.server == server {
			r.entries.Delete(name)
		}
		return true
	})
}

// Lookup returns the connection hosting the named tool.
func (r *Registry) Lookup(name string) (Operations, bool) {
	e, ok := r.entries.Get(name)
	if !ok {
		return nil, false
	}
	return e.operations, true
}

// Tools returns the definitions of every registered tool.
func (r *Registry) Tools() []schema.Tool {
	var ret []schema.Tool
	r.entries.Range(func(_ string, e *entry) bool {
		ret = append(ret, e.definition)
		return true
	})
	return ret
}

// Invoke dispatches a tool call by name. An unregistered name yields
// ErrUnknownTool so callers can apply their soft failure policy.
func (r *Registry) Invoke(ctx context.Context, name string, argumentsJSON string) (*schema.CallToolResult, error) {
	e, ok := r.entries.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTool, name)
	}
	arguments := map[string]interface{}{}
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &arguments); err != nil {
			return nil, fmt.Errorf("invalid arguments for tool %v: %w", name, err)
		}
	}
	return e.operations.CallTool(ctx, &schema.CallToolRequestParams{Name: name, Arguments: arguments})
}

// AddTools merges every registered tool into the outbound request so the model
// can invoke them as OpenAI function tools.
func (r *Registry) AddTools(ctx context.Context, request *openai.ChatCompletionRequest) error {
	present := map[string]bool{}
	for _, candidate := range request.Tools {
		present[candidate.Function.Name] = true
	}
	var failure error
	r.entries.Range(func(name string, e *entry) bool {
		if present[name] {
			return true
		}
		converted, err := AsOpenAITool(&e.definition)
		if err != nil {
			failure = err
			return false
		}
		request.Tools = append(request.Tools, *converted)
		return true
	})
	return failure
}

// AsOpenAITool converts an MCP tool definition into an OpenAI function tool.
func AsOpenAITool(definition *schema.Tool) (*openai.Tool, error) {
	parameters, err := json.Marshal(definition.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to convert tool %v: %w", definition.Name, err)
	}
	description := ""
	if definition.Description != nil {
		description = *definition.Description
	}
	return &openai.Tool{
		Type: "function",
		Function: openai.FunctionDefinition{
			Name:        definition.Name,
			Description: description,
			Parameters:  parameters,
		},
	}, nil
}
