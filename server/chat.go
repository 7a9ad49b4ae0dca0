package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viant/mcp-bridge/openai"
)

// handleChatCompletions serves one OpenAI style chat completion request by
// driving the streaming completion loop. The stream flag is always forced on
// for the bridged path.
func (s *Server) handleChatCompletions(writer http.ResponseWriter, request *http.Request) {
	chatRequest := &openai.ChatCompletionRequest{}
	if err := json.NewDecoder(request.Body).Decode(chatRequest); err != nil {
		http.Error(writer, "invalid chat completion request: "+err.Error(), http.StatusBadRequest)
		return
	}
	eventWriter, err := openai.NewEventWriter(writer)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.loop.Run(request.Context(), chatRequest, eventWriter); err != nil {
		s.logger.Error().Err(err).Msg("chat completion failed")
		if !eventWriter.Wrote() {
			// nothing streamed yet, a clean error response is still possible
			status := http.StatusInternalServerError
			if errors.Is(err, openai.ErrUnexpectedContentType) {
				status = http.StatusBadGateway
			}
			http.Error(writer, err.Error(), status)
		}
		return
	}
}
