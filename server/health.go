package server

import "net/http"

// handleHealth answers liveness probes; it is mounted outside the secured chain.
func (s *Server) handleHealth(writer http.ResponseWriter, _ *http.Request) {
	writeJSON(writer, http.StatusOK, map[string]string{"status": "ok"})
}
