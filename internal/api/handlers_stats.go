package api

import (
	"net/http"

	"github.com/dustin/go-humanize"
)

func (s *Server) handleUploadStats(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		jsonError(w, "upload stats unavailable", http.StatusServiceUnavailable)
		return
	}

	snap := s.images.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       snap,
		"bytes_human": humanize.Bytes(uint64(snap.Bytes)),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
