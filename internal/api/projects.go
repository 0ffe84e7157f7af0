package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ids, err := uuidParams(r, "user_id", "client_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := store.ProjectFilter{UserID: ids["user_id"], ClientID: ids["client_id"]}
	projects, err := s.store.ListProjects(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in store.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateProject(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.store.CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityProject, p.ID, events.ActionCreated, map[string]any{"name": p.Name, "user_ids": p.UserIDs})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityProject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityProject, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityProject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateProject(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.store.UpdateProject(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityProject, err))
		return
	}
	s.record(r, events.EntityProject, p.ID, events.ActionUpdated, map[string]any{"name": p.Name, "user_ids": p.UserIDs})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityProject)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityProject, err))
		return
	}
	s.record(r, events.EntityProject, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}
