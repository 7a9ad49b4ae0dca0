package server

import (
	"context"
	"net/http"
)

// HTTP creates and returns an HTTP server with the secured bridge surface and
// the public health endpoint mounted.
func (s *Server) HTTP(_ context.Context, addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		// default bind only to localhost to reduce exposure
		addr = "127.0.0.1:8000"
	}
	var middlewareHandlers []Middleware
	if s.authorizer != nil {
		middlewareHandlers = append(middlewareHandlers, s.authorizer)
	}
	middlewareHandlers = append(middlewareHandlers, s.corsHandler)
	secured := func(handler http.Handler) http.Handler {
		return ChainMiddlewareHandlers(handler, middlewareHandlers...)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/chat/completions", secured(http.HandlerFunc(s.handleChatCompletions)))
	mux.Handle(s.sseURI, secured(s.transport))
	mux.Handle(s.sseMessageURI, secured(s.transport))
	mux.Handle("GET /mcp/tools", secured(http.HandlerFunc(s.handleListTools)))
	mux.Handle("POST /mcp/tools/{name}/call", secured(http.HandlerFunc(s.handleCallTool)))
	mux.HandleFunc("GET /health", s.handleHealth)

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
