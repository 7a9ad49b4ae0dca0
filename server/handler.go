package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-bridge/internal/conv"
	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcp-protocol/syncmap"
)

// mcpHandler dispatches MCP JSON-RPC requests for one session. The bridge
// advertises a tools capability backed by the shared registry.
type mcpHandler struct {
	info            schema.Implementation
	protocolVersion string
	instructions    *string
	registry        *tool.Registry
	session         *Session
	logger          zerolog.Logger
	activeContexts  *syncmap.Map[int, context.CancelFunc]
	initialized     atomic.Bool
}

func newMCPHandler(server *Server, session *Session) *mcpHandler {
	return &mcpHandler{
		info:            server.info,
		protocolVersion: server.protocolVersion,
		instructions:    server.instructions,
		registry:        server.registry,
		session:         session,
		logger:          server.logger.With().Str("sessionId", session.ID()).Logger(),
		activeContexts:  syncmap.NewMap[int, context.CancelFunc](),
	}
}

// Serve handles incoming JSON-RPC requests
func (h *mcpHandler) Serve(parent context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if jsonrpc.Version != request.Jsonrpc {
		response.Error = jsonrpc.NewInvalidRequest("invalid JSON-RPC version", nil)
		return
	}
	switch request.Method {
	case schema.MethodInitialize, schema.MethodPing:
	default:
		if !h.initialized.Load() {
			response.Error = jsonrpc.NewInvalidRequest("server not initialized", nil)
			return
		}
	}
	id := conv.AsInt(request.Id)
	ctx, cancel := context.WithCancel(parent)
	h.activeContexts.Put(id, cancel)
	defer h.cancelOperation(id)

	switch request.Method {
	case schema.MethodInitialize:
		result, err := h.initialize(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodPing:
		h.setResponse(response, &schema.PingResult{}, nil)
	case schema.MethodToolsList:
		result, err := h.listTools(ctx, request)
		h.setResponse(response, result, err)
	case schema.MethodToolsCall:
		result, err := h.callTool(ctx, request)
		h.setResponse(response, result, err)
	default:
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", request.Method), request.Params)
	}
}

func (h *mcpHandler) cancelOperation(id int) {
	if cancel, ok := h.activeContexts.Get(id); ok {
		cancel()
		h.activeContexts.Delete(id)
	}
}

func (h *mcpHandler) initialize(_ context.Context, request *jsonrpc.Request) (*schema.InitializeResult, *jsonrpc.Error) {
	initRequest := schema.InitializeRequest{Method: schema.MethodInitialize}
	if err := json.Unmarshal(request.Params, &initRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse %v", err), request.Params)
	}
	result := &schema.InitializeResult{
		ProtocolVersion: h.protocolVersion,
		ServerInfo:      h.info,
		Capabilities: schema.ServerCapabilities{
			Tools: &schema.ServerCapabilitiesTools{},
		},
		Instructions: h.instructions,
	}
	return result, nil
}

func (h *mcpHandler) listTools(_ context.Context, request *jsonrpc.Request) (*schema.ListToolsResult, *jsonrpc.Error) {
	listRequest := &schema.ListToolsRequest{Method: request.Method}
	if err := json.Unmarshal(request.Params, &listRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
	}
	return &schema.ListToolsResult{Tools: h.registry.Tools()}, nil
}

func (h *mcpHandler) callTool(ctx context.Context, request *jsonrpc.Request) (*schema.CallToolResult, *jsonrpc.Error) {
	callRequest := &schema.CallToolRequest{Method: request.Method}
	if err := json.Unmarshal(request.Params, &callRequest.Params); err != nil {
		return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse: %v", err), request.Params)
	}
	operations, ok := h.registry.Lookup(callRequest.Params.Name)
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Unknown tool: "+callRequest.Params.Name, nil)
	}
	result, err := operations.CallTool(ctx, &callRequest.Params)
	if err != nil {
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	return result, nil
}

func (h *mcpHandler) setResponse(response *jsonrpc.Response, result interface{}, rpcError *jsonrpc.Error) {
	if rpcError != nil {
		response.Error = rpcError
		return
	}
	var err error
	response.Result, err = json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), []byte{})
	}
}

// OnNotification handles incoming JSON-RPC notifications
func (h *mcpHandler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationInitialized:
		h.initialized.Store(true)
	case schema.MethodNotificationCanceled:
		h.cancel(ctx, notification)
	default:
		h.logger.Debug().Str("method", notification.Method).Msg("unhandled notification")
	}
}

func (h *mcpHandler) cancel(_ context.Context, notification *jsonrpc.Notification) {
	var params schema.CancelledNotificationParams
	if err := json.Unmarshal(notification.Params, &params); err != nil {
		h.logger.Warn().Err(err).Msg("failed to parse cancellation notification")
		return
	}
	if params.RequestId == nil {
		return
	}
	h.cancelOperation(int(*params.RequestId))
}
