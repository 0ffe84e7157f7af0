package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := uuidParams(r, "project_id", "user_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := store.ReportFilter{ProjectID: ids["project_id"], UserID: ids["user_id"]}
	reports, err := s.store.ListReports(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var in store.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateReport(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := s.store.CreateReport(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityReport, rep.ID, events.ActionCreated, map[string]any{"title": rep.Title, "project_id": rep.ProjectID})
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityReport)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.store.GetReport(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityReport, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityReport)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.ReportInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateReport(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := s.store.UpdateReport(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityReport, err))
		return
	}
	s.record(r, events.EntityReport, rep.ID, events.ActionUpdated, map[string]any{"title": rep.Title, "project_id": rep.ProjectID})
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityReport)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteReport(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityReport, err))
		return
	}
	s.record(r, events.EntityReport, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}
