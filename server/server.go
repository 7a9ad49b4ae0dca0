// Package server assembles the bridge's HTTP surface: the OpenAI compatible
// chat completion endpoint, the MCP SSE transport and the management and
// health endpoints.
package server

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/viant/mcp-bridge/bridge"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

// Server hosts the bridge endpoints.
type Server struct {
	info            schema.Implementation
	protocolVersion string
	instructions    *string
	registry        *tool.Registry
	loop            *bridge.Loop
	authorizer      Middleware
	corsHandler     Middleware
	corsConfig      *Cors
	sseURI          string
	sseMessageURI   string
	transport       *Transport
	logger          zerolog.Logger
	addr            string
}

// Transport returns the MCP SSE transport.
func (s *Server) Transport() *Transport {
	return s.transport
}

// NewHandler creates a session scoped MCP handler; it is the transport's
// handler factory.
func (s *Server) NewHandler(_ context.Context, session *Session) Handler {
	return newMCPHandler(s, session)
}

// Shutdown closes every live MCP session.
func (s *Server) Shutdown(_ context.Context) {
	if s.transport != nil {
		s.transport.Shutdown()
	}
}

// New creates a bridge server instance.
func New(options ...Option) (*Server, error) {
	s := &Server{
		info: schema.Implementation{
			Name:    "MCP Bridge",
			Version: "0.1",
		},
		protocolVersion: schema.LatestProtocolVersion,
		logger:          zerolog.Nop(),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.registry == nil {
		return nil, errors.New("no tool registry specified")
	}
	if s.loop == nil {
		return nil, errors.New("no completion loop specified")
	}
	if s.corsHandler == nil {
		handler := &corsHandler{Cors: defaultCors()}
		s.corsHandler = handler.Middleware
	}
	if s.sseURI == "" {
		s.sseURI = "/mcp-server/sse"
	}
	if s.sseMessageURI == "" {
		s.sseMessageURI = "/mcp-server/sse/messages"
	}
	s.transport = NewTransport(s.NewHandler,
		WithStreamURI(s.sseURI),
		WithMessageURI(s.sseMessageURI),
		WithTransportLogger(s.logger),
	)
	return s, nil
}
