package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/metrics"
	"github.com/MikeSquared-Agency/callboard/internal/store"
	"github.com/MikeSquared-Agency/callboard/internal/transcript"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxAnalysisBytes = 1 << 20

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	ids, err := uuidParams(r, "projectID", "userID", "client_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := store.CallFilter{
		ProjectID: ids["projectID"],
		UserID:    ids["userID"],
		ClientID:  ids["client_id"],
		Limit:     queryLimit(r, 0),
	}
	if f.From, err = parseTimeParam(q.Get("from"), "from"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.To, err = parseTimeParam(q.Get("to"), "to"); err != nil {
		writeError(w, r, err)
		return
	}

	calls, err := s.store.ListCalls(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// parseTimeParam accepts RFC 3339 timestamps or bare YYYY-MM-DD dates (UTC
// midnight). Empty means unset.
func parseTimeParam(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	return nil, badRequest("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", name)
}

func (s *Server) handleCreateCall(w http.ResponseWriter, r *http.Request) {
	var in store.CallInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateCall(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.store.CreateCall(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.record(r, events.EntityCall, c.ID, events.ActionCreated, map[string]any{"project_id": c.ProjectID, "user_id": c.UserID})
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityCall)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.store.GetCall(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityCall)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in store.CallInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.validateCall(r.Context(), &in); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.store.UpdateCall(r.Context(), id, in)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}
	s.record(r, events.EntityCall, c.ID, events.ActionUpdated, map[string]any{"project_id": c.ProjectID, "user_id": c.UserID})
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCall(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityCall)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteCall(r.Context(), id); err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}
	s.record(r, events.EntityCall, id, events.ActionDeleted, nil)
	w.WriteHeader(http.StatusNoContent)
}

type transcriptResponse struct {
	CallID     string            `json:"call_id"`
	Transcript string            `json:"transcript"`
	Turns      []transcript.Turn `json:"turns"`
}

func (s *Server) handleCallTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityCall)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.store.GetCall(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}

	turns := transcript.Parse(c.Summary)
	if turns == nil {
		turns = []transcript.Turn{}
	}
	writeJSON(w, http.StatusOK, transcriptResponse{
		CallID:     c.ID,
		Transcript: transcript.Format(c.Summary),
		Turns:      turns,
	})
}

func (s *Server) handleSetCallAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, events.EntityCall)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAnalysisBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, &httpError{status: http.StatusRequestEntityTooLarge,
				msg: fmt.Sprintf("analysis body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeError(w, r, badRequest("could not read body"))
		return
	}
	if !json.Valid(body) {
		writeError(w, r, badRequest("invalid JSON body"))
		return
	}

	if err := s.store.SetCallAnalysis(r.Context(), id, body); err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}
	s.record(r, events.EntityCall, id, events.ActionAnalysis, nil)

	c, err := s.store.GetCall(r.Context(), id)
	if err != nil {
		writeError(w, r, lookupErr(events.EntityCall, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleCallHistory buckets a project's calls into day, week or month
// intervals. The project lookup and the call fetch run concurrently.
func (s *Server) handleCallHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID := q.Get("projectID")
	if projectID == "" {
		writeError(w, r, badRequest("projectID is required"))
		return
	}
	raw := q.Get("interval")
	if raw == "" {
		raw = string(metrics.Daily)
	}
	interval, err := metrics.ParseInterval(raw)
	if err != nil {
		writeError(w, r, badRequest("interval must be one of daily, weekly, monthly"))
		return
	}
	if _, err := uuid.Parse(projectID); err != nil {
		writeError(w, r, notFound(events.EntityProject))
		return
	}
	ids, err := uuidParams(r, "userID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var calls []store.Call
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		_, err := s.store.GetProject(ctx, projectID)
		return lookupErr(events.EntityProject, err)
	})
	g.Go(func() error {
		var err error
		calls, err = s.store.ListCalls(ctx, store.CallFilter{ProjectID: projectID, UserID: ids["userID"]})
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, metrics.Aggregate(toRecords(calls), interval))
}

func toRecords(calls []store.Call) []metrics.CallRecord {
	records := make([]metrics.CallRecord, 0, len(calls))
	for _, c := range calls {
		records = append(records, metrics.CallRecord{
			StartTime: c.StartTime,
			EndTime:   c.EndTime,
			Analysis:  metrics.ParseAnalysis(c.Analysis),
		})
	}
	return records
}
