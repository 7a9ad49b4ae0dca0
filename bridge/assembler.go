package bridge

import (
	"errors"
	"strings"

	"github.com/viant/mcp-bridge/openai"
)

// ErrToolCallConflict indicates a second, distinct tool name arrived before the
// pending call completed; the bridge supports one tool call per turn and never
// silently overwrites the first.
var ErrToolCallConflict = errors.New("conflicting tool call within a single turn")

// PendingCall is the tool call under assembly for the current turn. The id and
// name are frozen on the first delta that carries them; argument fragments
// append regardless of whether later deltas repeat id or name.
type PendingCall struct {
	ID   string
	Name string
	Args ArgumentBuffer
}

// Assembler reassembles fragmented tool calls from streamed deltas and decides
// per event whether the caller should relay it downstream. Clients must see
// assistant text live but never raw partial tool call JSON.
type Assembler struct {
	pending      *PendingCall
	content      strings.Builder
	finishReason string
}

// Consume folds one decoded chunk into the turn state and reports whether the
// event should be forwarded downstream verbatim.
func (a *Assembler) Consume(chunk *openai.StreamResponse) (bool, error) {
	choice := chunk.FirstChoice()
	if choice == nil {
		return false, nil
	}
	forward := true
	if choice.FinishReason != "" {
		a.finishReason = choice.FinishReason
		if !openai.IsTerminalFinishReason(choice.FinishReason) {
			// a tool call is expected to finalize after stream end
			forward = false
		}
	}
	if len(choice.Delta.ToolCalls) > 0 {
		forward = false
		for i := range choice.Delta.ToolCalls {
			if err := a.consumeToolCallDelta(&choice.Delta.ToolCalls[i]); err != nil {
				return false, err
			}
		}
	}
	if choice.Delta.Content != "" {
		a.content.WriteString(choice.Delta.Content)
	}
	return forward, nil
}

func (a *Assembler) consumeToolCallDelta(delta *openai.ToolCallDelta) error {
	if a.pending == nil {
		a.pending = &PendingCall{ID: delta.ID, Name: delta.Function.Name}
	} else {
		if delta.Function.Name != "" && a.pending.Name != "" && delta.Function.Name != a.pending.Name {
			return ErrToolCallConflict
		}
		if a.pending.ID == "" {
			a.pending.ID = delta.ID
		}
		if a.pending.Name == "" {
			a.pending.Name = delta.Function.Name
		}
	}
	a.pending.Args.Append(delta.Function.Arguments)
	return nil
}

// Pending returns the tool call under assembly, or nil.
func (a *Assembler) Pending() *PendingCall {
	return a.pending
}

// Content returns the assistant text accumulated this turn.
func (a *Assembler) Content() string {
	return a.content.String()
}

// FinishReason returns the last finish reason seen this turn, or empty.
func (a *Assembler) FinishReason() string {
	return a.finishReason
}

// Terminal reports whether the recorded finish reason ends the conversation.
func (a *Assembler) Terminal() bool {
	return openai.IsTerminalFinishReason(a.finishReason)
}
