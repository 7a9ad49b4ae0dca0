package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/viant/mcp-bridge/tool"
	"github.com/viant/mcp-protocol/schema"
)

// handleListTools returns the definitions of every tool known to the registry.
func (s *Server) handleListTools(writer http.ResponseWriter, _ *http.Request) {
	tools := s.registry.Tools()
	if tools == nil {
		tools = []schema.Tool{}
	}
	writeJSON(writer, http.StatusOK, map[string]interface{}{"tools": tools})
}

type callToolRequest struct {
	Arguments map[string]interface{} `json:"arguments"`
}

// handleCallTool invokes a registered tool directly, outside any conversation.
func (s *Server) handleCallTool(writer http.ResponseWriter, request *http.Request) {
	name := request.PathValue("name")
	body := &callToolRequest{}
	if err := json.NewDecoder(request.Body).Decode(body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(writer, "invalid tool call request: "+err.Error(), http.StatusBadRequest)
		return
	}
	operations, ok := s.registry.Lookup(name)
	if !ok {
		http.Error(writer, "unknown tool: "+name, http.StatusNotFound)
		return
	}
	result, err := operations.CallTool(request.Context(), &schema.CallToolRequestParams{Name: name, Arguments: body.Arguments})
	if err != nil {
		if errors.Is(err, tool.ErrUnknownTool) {
			http.Error(writer, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(writer, http.StatusOK, result)
}

func writeJSON(writer http.ResponseWriter, status int, value interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(value)
}
