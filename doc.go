// Package mcpbridge bridges OpenAI compatible chat clients and Model Context
// Protocol tool servers.
//
// The bridge exposes two faces. On one side it serves an OpenAI style
// /v1/chat/completions endpoint: requests are relayed to a configured
// inference backend as a server-sent event stream, assistant deltas are
// forwarded to the caller live, while tool call fragments are suppressed,
// reassembled, executed against registered MCP tools and their results fed
// back into the conversation until the model produces a final answer. On the
// other side it hosts an MCP SSE endpoint so MCP clients can list and call
// the same tools directly.
//
// The cmd/mcp-bridge binary assembles both faces from a JSON configuration,
// see the app package for the wiring and the config package for the format.
package mcpbridge
