package bridge

import (
	"encoding/json"
	"strings"
)

// ArgumentBuffer accumulates fragments of a tool call's argument JSON across
// streamed deltas. Completeness is probed by parsing the accumulated text: a
// parse failure only means the buffer is still mid token, never an error.
type ArgumentBuffer struct {
	builder strings.Builder
}

// Append adds one argument fragment.
func (b *ArgumentBuffer) Append(chunk string) {
	b.builder.WriteString(chunk)
}

// IsComplete reports whether the accumulated text is a valid JSON document.
func (b *ArgumentBuffer) IsComplete() bool {
	return json.Valid([]byte(b.builder.String()))
}

// String returns the accumulated argument text.
func (b *ArgumentBuffer) String() string {
	return b.builder.String()
}

// Len returns the accumulated byte count.
func (b *ArgumentBuffer) Len() int {
	return b.builder.Len()
}
