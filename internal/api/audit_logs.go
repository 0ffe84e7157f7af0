package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AuditFilter{
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		ActorID:  q.Get("actor_id"),
		Limit:    queryLimit(r, 100),
	}

	entries, err := s.store.ListAuditLogs(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
