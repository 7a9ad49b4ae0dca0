package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/mcp-bridge/openai"
)

func contentChunk(text string) *openai.StreamResponse {
	return &openai.StreamResponse{Choices: []openai.StreamChoice{
		{Delta: openai.StreamDelta{Content: text}},
	}}
}

func toolChunk(id, name, arguments string) *openai.StreamResponse {
	return &openai.StreamResponse{Choices: []openai.StreamChoice{
		{Delta: openai.StreamDelta{ToolCalls: []openai.ToolCallDelta{
			{ID: id, Function: openai.FunctionCall{Name: name, Arguments: arguments}},
		}}},
	}}
}

func finishChunk(reason string) *openai.StreamResponse {
	return &openai.StreamResponse{Choices: []openai.StreamChoice{
		{FinishReason: reason},
	}}
}

func TestAssemblerForwardsPlainContent(t *testing.T) {
	assembler := &Assembler{}
	forward, err := assembler.Consume(contentChunk("Hello"))
	assert.Nil(t, err)
	assert.True(t, forward)
	forward, err = assembler.Consume(contentChunk(" world"))
	assert.Nil(t, err)
	assert.True(t, forward)
	forward, err = assembler.Consume(finishChunk(openai.FinishReasonStop))
	assert.Nil(t, err)
	assert.True(t, forward)
	assert.Equal(t, "Hello world", assembler.Content())
	assert.True(t, assembler.Terminal())
	assert.Nil(t, assembler.Pending())
}

func TestAssemblerTerminalFinishReasons(t *testing.T) {
	testCases := []struct {
		reason   string
		forward  bool
		terminal bool
	}{
		{openai.FinishReasonStop, true, true},
		{openai.FinishReasonLength, true, true},
		{openai.FinishReasonToolCalls, false, false},
		{openai.FinishReasonContentFilter, false, false},
	}
	for _, testCase := range testCases {
		assembler := &Assembler{}
		forward, err := assembler.Consume(finishChunk(testCase.reason))
		assert.Nil(t, err, testCase.reason)
		assert.Equal(t, testCase.forward, forward, testCase.reason)
		assert.Equal(t, testCase.terminal, assembler.Terminal(), testCase.reason)
	}
}

func TestAssemblerSuppressesToolCallDeltas(t *testing.T) {
	assembler := &Assembler{}
	forward, err := assembler.Consume(toolChunk("call_1", "read_file", `{"loca`))
	assert.Nil(t, err)
	assert.False(t, forward)
	forward, err = assembler.Consume(toolChunk("", "", `tion": "README.md"}`))
	assert.Nil(t, err)
	assert.False(t, forward)
	forward, err = assembler.Consume(finishChunk(openai.FinishReasonToolCalls))
	assert.Nil(t, err)
	assert.False(t, forward, "tool call finish must not leak downstream")

	pending := assembler.Pending()
	if assert.NotNil(t, pending) {
		assert.Equal(t, "call_1", pending.ID)
		assert.Equal(t, "read_file", pending.Name)
		assert.Equal(t, `{"location": "README.md"}`, pending.Args.String())
		assert.True(t, pending.Args.IsComplete())
	}
	assert.False(t, assembler.Terminal())
}

func TestAssemblerFreezesFirstIdentity(t *testing.T) {
	assembler := &Assembler{}
	_, err := assembler.Consume(toolChunk("", "list_files", `{`))
	assert.Nil(t, err)
	// id arriving late is adopted; repeated name is fine
	_, err = assembler.Consume(toolChunk("call_9", "list_files", `}`))
	assert.Nil(t, err)
	pending := assembler.Pending()
	assert.Equal(t, "call_9", pending.ID)
	assert.Equal(t, "list_files", pending.Name)
}

func TestAssemblerRejectsConflictingToolName(t *testing.T) {
	assembler := &Assembler{}
	_, err := assembler.Consume(toolChunk("call_1", "read_file", `{`))
	assert.Nil(t, err)
	_, err = assembler.Consume(toolChunk("call_2", "terminal", `{`))
	assert.ErrorIs(t, err, ErrToolCallConflict)
}

func TestAssemblerCollectsContentAlongsideToolCall(t *testing.T) {
	assembler := &Assembler{}
	forward, err := assembler.Consume(contentChunk("Let me check. "))
	assert.Nil(t, err)
	assert.True(t, forward)
	forward, err = assembler.Consume(toolChunk("call_1", "list_files", `{}`))
	assert.Nil(t, err)
	assert.False(t, forward)
	assert.Equal(t, "Let me check. ", assembler.Content())
}

func TestAssemblerIgnoresHeartbeatChunks(t *testing.T) {
	assembler := &Assembler{}
	forward, err := assembler.Consume(&openai.StreamResponse{})
	assert.Nil(t, err)
	assert.False(t, forward)
}
