package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleDecodeStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth":    s.orchestrator.QueueDepth(),
		"cached_results": s.orchestrator.CachedResults(),
		"stats":          s.orchestrator.Stats(),
	})
}
