// Package bridge implements the streaming completion orchestration between an
// OpenAI compatible inference backend and MCP tools.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/viant/mcp-bridge/openai"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

// ErrTooManyCorrections ends a conversation whose model keeps producing
// malformed tool calls instead of recovering.
var ErrTooManyCorrections = errors.New("too many corrective turns")

// EventSink receives the events relayed to the downstream client.
type EventSink interface {
	SendJSON(value any) error
	Done() error
}

// Tools supplies tool definitions advertised to the model and executes them.
type Tools interface {
	tool.Invoker
	AddTools(ctx context.Context, request *openai.ChatCompletionRequest) error
}

// loop states; one Run call walks streaming -> evaluating -> {invoking,
// recovering, done} until the conversation terminates.
type state int

const (
	stateInvoking state = iota
	stateRecovering
	stateDone
)

// Loop drives one multi turn chat completion conversation: it subscribes to the
// upstream SSE stream, relays plain assistant deltas downstream, suppresses and
// reassembles tool call fragments, executes completed calls and re-injects
// their results into the growing history until the model produces a final
// answer. One instance serves one inbound request.
type Loop struct {
	client             *openai.Client
	tools              Tools
	logger             zerolog.Logger
	maxCorrectiveTurns int
}

// Option configures a Loop.
type Option func(l *Loop)

// WithLogger sets the loop logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithMaxCorrectiveTurns bounds how many times an incomplete tool call may be
// answered with a corrective message before the conversation fails.
func WithMaxCorrectiveTurns(limit int) Option {
	return func(l *Loop) {
		l.maxCorrectiveTurns = limit
	}
}

// New creates a completion loop bound to an inference backend client and a tool source.
func New(client *openai.Client, tools Tools, options ...Option) *Loop {
	ret := &Loop{
		client:             client,
		tools:              tools,
		logger:             zerolog.Nop(),
		maxCorrectiveTurns: 8,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Run executes the conversation until the model produces a final answer,
// relaying forwardable events to sink in receipt order. The whole message
// history is re-serialized to the backend on every turn. Client disconnect
// cancels ctx, which aborts the in-flight upstream subscription.
func (l *Loop) Run(ctx context.Context, request *openai.ChatCompletionRequest, sink EventSink) error {
	request.Stream = true
	if l.tools != nil {
		if err := l.tools.AddTools(ctx, request); err != nil {
			return fmt.Errorf("failed to add tools: %w", err)
		}
	}
	corrective := 0
	for turn := 1; ; turn++ {
		assembler := &Assembler{}
		cancelled, err := l.streamTurn(ctx, request, assembler, sink)
		if err != nil {
			return err
		}
		if cancelled {
			return nil
		}
		next, err := l.evaluate(ctx, request, assembler, turn, &corrective)
		if err != nil {
			return err
		}
		if next == stateDone {
			return sink.Done()
		}
	}
}

// streamTurn reads one upstream subscription to completion, routing every chunk
// through the assembler and forwarding permitted events downstream.
func (l *Loop) streamTurn(ctx context.Context, request *openai.ChatCompletionRequest, assembler *Assembler, sink EventSink) (cancelled bool, err error) {
	stream, err := l.client.StreamChatCompletion(ctx, request)
	if err != nil {
		return false, err
	}
	defer stream.Close()
	for {
		chunk, ok, err := stream.Next(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return stream.Reason() == openai.TerminationCancelled, nil
		}
		forward, err := assembler.Consume(chunk)
		if err != nil {
			return false, err
		}
		if !forward {
			continue
		}
		if err := sink.SendJSON(chunk); err != nil {
			// downstream client is gone, stop the turn
			l.logger.Debug().Err(err).Msg("downstream write failed, ending turn")
			return true, nil
		}
	}
}

// evaluate inspects the assembled turn and advances the conversation: append
// the final assistant message and finish, recover from an incomplete tool call,
// or execute the call and extend the history for the next turn.
func (l *Loop) evaluate(ctx context.Context, request *openai.ChatCompletionRequest, assembler *Assembler, turn int, corrective *int) (state, error) {
	pending := assembler.Pending()
	if assembler.Terminal() {
		if content := assembler.Content(); content != "" {
			request.Messages = append(request.Messages, openai.ChatMessage{
				Role:    openai.RoleAssistant,
				Content: openai.TextContent(content),
			})
		}
		return stateDone, nil
	}
	if pending == nil || pending.Name == "" {
		// stream ended with neither content to act on nor a tool call
		return stateDone, nil
	}
	if !pending.Args.IsComplete() {
		*corrective++
		l.logger.Warn().
			Str("tool", pending.Name).
			Str("arguments", pending.Args.String()).
			Str("finishReason", assembler.FinishReason()).
			Int("turn", turn).
			Msg("incomplete tool call JSON, adding corrective message")
		if *corrective > l.maxCorrectiveTurns {
			return stateDone, fmt.Errorf("%w: %v", ErrTooManyCorrections, *corrective)
		}
		request.Messages = append(request.Messages, openai.ChatMessage{
			Role: openai.RoleUser,
			Content: openai.TextContent(fmt.Sprintf(
				"The tool call '%s' failed. Please just explain what happened and don't do any actions.", pending.Name)),
		})
		return stateRecovering, nil
	}
	return stateInvoking, l.invokeTool(ctx, request, assembler, pending)
}

// invokeTool records the completed call in the history, executes it and appends
// the tool result message. A dispatch failure is a soft skip: the next turn
// proceeds with the history as is and the model decides what to do.
func (l *Loop) invokeTool(ctx context.Context, request *openai.ChatCompletionRequest, assembler *Assembler, pending *PendingCall) error {
	if pending.ID == "" {
		pending.ID = uuid.NewString()
	}
	argumentsJSON := pending.Args.String()
	request.Messages = append(request.Messages, openai.ChatMessage{
		Role:    openai.RoleAssistant,
		Content: openai.TextContent(assembler.Content()),
		ToolCalls: []openai.ToolCall{
			{
				ID:   pending.ID,
				Type: "function",
				Function: openai.FunctionCall{
					Name:      pending.Name,
					Arguments: argumentsJSON,
				},
			},
		},
	})
	result, err := l.tools.Invoke(ctx, pending.Name, argumentsJSON)
	if err != nil || result == nil {
		l.logger.Warn().Err(err).Str("tool", pending.Name).Msg("tool call produced no result, skipping")
		return nil
	}
	if result.IsError != nil && *result.IsError {
		l.logger.Warn().Str("tool", pending.Name).Msg("tool reported an error result")
	}
	parts := textParts(result)
	if len(parts) == 0 {
		parts = []openai.ContentPart{{Type: "text", Text: "the tool call result is empty"}}
	}
	request.Messages = append(request.Messages, openai.ChatMessage{
		Role:       openai.RoleTool,
		Content:    openai.PartsContent(parts...),
		ToolCallID: pending.ID,
	})
	return nil
}

func textParts(result *schema.CallToolResult) []openai.ContentPart {
	var parts []openai.ContentPart
	for _, elem := range result.Content {
		text := ""
		switch actual := elem.(type) {
		case schema.TextContent:
			text = actual.Text
		case *schema.TextContent:
			text = actual.Text
		case map[string]interface{}:
			// results decoded from generic JSON arrive as plain maps
			text, _ = actual["text"].(string)
		}
		if text == "" {
			continue
		}
		parts = append(parts, openai.ContentPart{Type: "text", Text: text})
	}
	return parts
}
