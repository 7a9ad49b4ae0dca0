package server

import (
	"github.com/rs/zerolog"
	"github.com/viant/mcp-bridge/bridge"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

// Option is a function that configures the server.
type Option func(s *Server) error

// WithCORS adds a new CORS handler to the server.
func WithCORS(cors *Cors) Option {
	return func(s *Server) error {
		handler := &corsHandler{Cors: cors}
		s.corsConfig = cors
		s.corsHandler = handler.Middleware
		return nil
	}
}

// WithAuthorizer adds an authentication middleware guarding the secured surface.
func WithAuthorizer(authorizer Middleware) Option {
	return func(s *Server) error {
		s.authorizer = authorizer
		return nil
	}
}

// WithImplementation sets the implementation advertised on MCP initialize.
func WithImplementation(implementation schema.Implementation) Option {
	return func(s *Server) error {
		s.info = implementation
		return nil
	}
}

// WithInstructions sets the instructions advertised on MCP initialize.
func WithInstructions(instructions string) Option {
	return func(s *Server) error {
		s.instructions = &instructions
		return nil
	}
}

// WithRegistry sets the shared tool registry.
func WithRegistry(registry *tool.Registry) Option {
	return func(s *Server) error {
		s.registry = registry
		return nil
	}
}

// WithCompletionLoop sets the streaming completion loop serving chat requests.
func WithCompletionLoop(loop *bridge.Loop) Option {
	return func(s *Server) error {
		s.loop = loop
		return nil
	}
}

// WithSSEURIs sets the MCP stream and message endpoint paths.
func WithSSEURIs(streamURI, messageURI string) Option {
	return func(s *Server) error {
		s.sseURI = streamURI
		s.sseMessageURI = messageURI
		return nil
	}
}

// WithLogger sets the server logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithAddr sets the default listen address.
func WithAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}
