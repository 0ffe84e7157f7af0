package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
	"github.com/MikeSquared-Agency/callboard/internal/testutil"
)

const missingID = "6f1c1f5e-8a54-4a8e-9f0e-3c1d0e2b7a11"

func TestDepartmentLifecycle(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, bat := setupServer(ms)

	w := do(t, srv, "POST", "/api/v1/departments", map[string]string{"name": "  Sales ", "description": "field team"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	d := decodeBody[store.Department](t, w)
	if d.Name != "Sales" {
		t.Errorf("expected trimmed name Sales, got %q", d.Name)
	}

	w = do(t, srv, "POST", "/api/v1/departments", map[string]string{"name": "Sales"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate name, got %d", w.Code)
	}

	w = do(t, srv, "PUT", "/api/v1/departments/"+d.ID, map[string]string{"name": "Inside Sales"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody[store.Department](t, w).Name; got != "Inside Sales" {
		t.Errorf("expected updated name, got %q", got)
	}

	w = do(t, srv, "DELETE", "/api/v1/departments/"+d.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/v1/departments/"+d.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "department not found" {
		t.Errorf("expected 'department not found', got %q", msg)
	}

	if bat.BufferLen() != 3 {
		t.Errorf("expected 3 audit entries (create, update, delete), got %d", bat.BufferLen())
	}
}

func TestDepartment_NameRequired(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := do(t, srv, "POST", "/api/v1/departments", map[string]string{"name": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, _ := setupServer(ms)
	missing := missingID

	tests := []struct {
		name string
		in   store.UserInput
		code int
	}{
		{"missing name", store.UserInput{Email: "a@example.com"}, http.StatusBadRequest},
		{"missing email", store.UserInput{Name: "Ana"}, http.StatusBadRequest},
		{"bad email", store.UserInput{Name: "Ana", Email: "not-an-email"}, http.StatusBadRequest},
		{"display-name email", store.UserInput{Name: "Ana", Email: "Ana <a@example.com>"}, http.StatusBadRequest},
		{"bad role", store.UserInput{Name: "Ana", Email: "a@example.com", Role: "owner"}, http.StatusBadRequest},
		{"unknown department", store.UserInput{Name: "Ana", Email: "a@example.com", DepartmentID: &missing}, http.StatusNotFound},
		{"ok", store.UserInput{Name: "Ana", Email: "a@example.com"}, http.StatusCreated},
		{"duplicate email", store.UserInput{Name: "Ana B", Email: "a@example.com"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/api/v1/users", tt.in)
			if w.Code != tt.code {
				t.Errorf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}

	for _, u := range ms.Users {
		if u.Role != store.RoleAgent {
			t.Errorf("expected default role agent, got %s", u.Role)
		}
	}
}

func TestListUsers_FilterByDepartment(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, _ := setupServer(ms)

	d := decodeBody[store.Department](t, do(t, srv, "POST", "/api/v1/departments", map[string]string{"name": "Support"}))
	do(t, srv, "POST", "/api/v1/users", map[string]any{"name": "Ana", "email": "ana@example.com", "department_id": d.ID})
	do(t, srv, "POST", "/api/v1/users", map[string]any{"name": "Ben", "email": "ben@example.com"})

	w := do(t, srv, "GET", "/api/v1/users?department_id="+d.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	users := decodeBody[[]store.User](t, w)
	if len(users) != 1 || users[0].Name != "Ana" {
		t.Errorf("expected only Ana, got %+v", users)
	}

	w = do(t, srv, "GET", "/api/v1/users?department_id=sales", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-UUID filter, got %d", w.Code)
	}
}

func TestCreateClient_OptionalEmail(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())

	w := do(t, srv, "POST", "/api/v1/clients", map[string]any{"name": "Acme", "email": ""})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if c := decodeBody[store.Client](t, w); c.Email != nil {
		t.Errorf("expected blank email stored as nil, got %v", *c.Email)
	}

	w = do(t, srv, "POST", "/api/v1/clients", map[string]any{"name": "Acme", "email": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// seed creates a user and a project owned by that user.
func seed(t *testing.T, srv *Server) (store.User, store.Project) {
	t.Helper()
	w := do(t, srv, "POST", "/api/v1/users", map[string]string{"name": "Ana", "email": "ana@example.com", "role": "manager"})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed user: expected 201, got %d", w.Code)
	}
	u := decodeBody[store.User](t, w)

	w = do(t, srv, "POST", "/api/v1/projects", map[string]any{"name": "Renewals", "user_ids": []string{u.ID, u.ID}})
	if w.Code != http.StatusCreated {
		t.Fatalf("seed project: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return u, decodeBody[store.Project](t, w)
}

func TestCreateProject(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	if len(p.UserIDs) != 1 || p.UserIDs[0] != u.ID {
		t.Errorf("expected deduplicated user_ids [%s], got %v", u.ID, p.UserIDs)
	}

	w := do(t, srv, "POST", "/api/v1/projects", map[string]any{"name": "Ghost", "user_ids": []string{missingID}})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown user, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "user not found" {
		t.Errorf("expected 'user not found', got %q", msg)
	}

	w = do(t, srv, "GET", "/api/v1/projects?user_id="+u.ID, nil)
	if got := decodeBody[[]store.Project](t, w); len(got) != 1 {
		t.Errorf("expected 1 project for user, got %d", len(got))
	}
}

func TestCreateCall_Validation(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	w := do(t, srv, "POST", "/api/v1/calls", map[string]any{"user_id": u.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without project_id, got %d", w.Code)
	}

	w = do(t, srv, "POST", "/api/v1/calls", map[string]any{"project_id": missingID, "user_id": u.ID})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown project, got %d", w.Code)
	}

	w = do(t, srv, "POST", "/api/v1/calls", map[string]any{
		"project_id": p.ID, "user_id": u.ID,
		"start_time": "2024-03-01T10:00:00Z", "end_time": "2024-03-01T09:00:00Z",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for end before start, got %d", w.Code)
	}

	w = do(t, srv, "POST", "/api/v1/calls", map[string]any{
		"project_id": p.ID, "user_id": u.ID,
		"start_time": "2024-03-01T10:00:00Z", "end_time": "2024-03-01T10:30:00Z",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListCalls_Filters(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	for _, start := range []string{"2024-03-01T10:00:00Z", "2024-03-02T10:00:00Z", "2024-03-03T10:00:00Z"} {
		w := do(t, srv, "POST", "/api/v1/calls", map[string]any{"project_id": p.ID, "user_id": u.ID, "start_time": start})
		if w.Code != http.StatusCreated {
			t.Fatalf("create call: expected 201, got %d", w.Code)
		}
	}

	w := do(t, srv, "GET", "/api/v1/calls?projectID="+p.ID+"&from=2024-03-02&to=2024-03-03", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody[[]store.Call](t, w); len(got) != 1 {
		t.Errorf("expected 1 call in range, got %d", len(got))
	}

	w = do(t, srv, "GET", "/api/v1/calls?limit=2", nil)
	if got := decodeBody[[]store.Call](t, w); len(got) != 2 {
		t.Errorf("expected 2 calls with limit, got %d", len(got))
	}

	w = do(t, srv, "GET", "/api/v1/calls?from=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad from, got %d", w.Code)
	}
}

func TestCallTranscript(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	summary := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\n<v Ana>Hello\n\n00:00:02.000 --> 00:00:03.000\n<v Ana>there\n\n00:00:03.000 --> 00:00:04.000\n<v Bob>Hi"
	c := decodeBody[store.Call](t, do(t, srv, "POST", "/api/v1/calls", map[string]any{
		"project_id": p.ID, "user_id": u.ID, "summary": summary,
	}))

	w := do(t, srv, "GET", "/api/v1/calls/"+c.ID+"/transcript", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeBody[transcriptResponse](t, w)
	want := "00:00:01.000 - 00:00:03.000\nAna\nHello there\n\n00:00:03.000 - 00:00:04.000\nBob\nHi"
	if resp.Transcript != want {
		t.Errorf("expected transcript %q, got %q", want, resp.Transcript)
	}
	if len(resp.Turns) != 2 {
		t.Errorf("expected 2 turns, got %d", len(resp.Turns))
	}
}

func TestCallTranscript_PlainSummary(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	c := decodeBody[store.Call](t, do(t, srv, "POST", "/api/v1/calls", map[string]any{
		"project_id": p.ID, "user_id": u.ID, "summary": "customer asked about pricing",
	}))

	resp := decodeBody[map[string]any](t, do(t, srv, "GET", "/api/v1/calls/"+c.ID+"/transcript", nil))
	if resp["transcript"] != "customer asked about pricing" {
		t.Errorf("expected summary passed through, got %v", resp["transcript"])
	}
	if turns, ok := resp["turns"].([]any); !ok || len(turns) != 0 {
		t.Errorf("expected empty turns array, got %v", resp["turns"])
	}
}

func TestSetCallAnalysis(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, bat := setupServer(ms)
	u, p := seed(t, srv)
	c := decodeBody[store.Call](t, do(t, srv, "POST", "/api/v1/calls", map[string]any{"project_id": p.ID, "user_id": u.ID}))
	before := bat.BufferLen()

	w := do(t, srv, "PUT", "/api/v1/calls/"+c.ID+"/analysis", `{"ociAnalysis":{"documentSentiment":"Positive"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := string(ms.Calls[c.ID].Analysis); got != `{"ociAnalysis":{"documentSentiment":"Positive"}}` {
		t.Errorf("expected analysis stored verbatim, got %s", got)
	}
	if bat.BufferLen() != before+1 {
		t.Errorf("expected one analysis audit entry, got %d new", bat.BufferLen()-before)
	}

	w = do(t, srv, "PUT", "/api/v1/calls/"+c.ID+"/analysis", "{broken")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid JSON, got %d", w.Code)
	}
	w = do(t, srv, "PUT", "/api/v1/calls/"+missingID+"/analysis", "{}")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown call, got %d", w.Code)
	}
}

func TestCallHistory(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	calls := []struct{ start, end, analysis string }{
		{"2024-03-01T10:00:00Z", "2024-03-01T10:30:00Z", `{"ociAnalysis":{"documentSentiment":"Positive"},"llmInsights":{"se_resolvio":true}}`},
		{"2024-03-03T10:00:00Z", "2024-03-03T10:10:00Z", `{"ociAnalysis":{"documentSentiment":"Negative"}}`},
	}
	for _, c := range calls {
		created := decodeBody[store.Call](t, do(t, srv, "POST", "/api/v1/calls", map[string]any{
			"project_id": p.ID, "user_id": u.ID, "start_time": c.start, "end_time": c.end,
		}))
		do(t, srv, "PUT", "/api/v1/calls/"+created.ID+"/analysis", c.analysis)
	}

	w := do(t, srv, "GET", "/api/v1/calls/history?projectID="+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	h := decodeBody[map[string][]any](t, w)
	if len(h["intervals"]) != 3 {
		t.Fatalf("expected 3 daily intervals, got %v", h["intervals"])
	}
	if h["intervals"][1] != "2024-03-02" {
		t.Errorf("expected gap day 2024-03-02, got %v", h["intervals"][1])
	}
	if h["averageDurations"][0] != 30.0 {
		t.Errorf("expected 30 minute average, got %v", h["averageDurations"][0])
	}
	if h["positiveSentimentPercentages"][0] != 100.0 || h["resolvedPercentages"][2] != 0.0 {
		t.Errorf("unexpected percentages: %v / %v", h["positiveSentimentPercentages"], h["resolvedPercentages"])
	}

	w = do(t, srv, "GET", "/api/v1/calls/history?projectID="+p.ID+"&interval=monthly", nil)
	if got := decodeBody[map[string][]any](t, w)["intervals"]; len(got) != 1 || got[0] != "2024-03" {
		t.Errorf("expected single 2024-03 bucket, got %v", got)
	}
}

func TestCallHistory_Errors(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	_, p := seed(t, srv)

	w := do(t, srv, "GET", "/api/v1/calls/history?projectID="+p.ID+"&interval=hourly", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad interval, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/v1/calls/history?projectID="+missingID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown project, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "project not found" {
		t.Errorf("expected 'project not found', got %q", msg)
	}
	w = do(t, srv, "GET", "/api/v1/calls/history", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without projectID, got %d", w.Code)
	}
}

func TestCallHistory_EmptyProject(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	_, p := seed(t, srv)

	w := do(t, srv, "GET", "/api/v1/calls/history?projectID="+p.ID+"&interval=weekly", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := `{"intervals":[],"averageDurations":[],"positiveSentimentPercentages":[],"resolvedPercentages":[]}` + "\n"
	if w.Body.String() != want {
		t.Errorf("expected empty arrays, got %s", w.Body.String())
	}
}

func TestReports(t *testing.T) {
	srv, _ := setupServer(testutil.NewMockStore())
	u, p := seed(t, srv)

	w := do(t, srv, "POST", "/api/v1/reports", map[string]any{"project_id": p.ID, "user_id": u.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without title, got %d", w.Code)
	}
	missing := missingID
	w = do(t, srv, "POST", "/api/v1/reports", map[string]any{"project_id": p.ID, "user_id": u.ID, "title": "Q1", "call_id": missing})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown call, got %d", w.Code)
	}
	w = do(t, srv, "POST", "/api/v1/reports", map[string]any{"project_id": p.ID, "user_id": u.ID, "title": "Q1", "content": "ok"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/v1/reports?project_id="+p.ID, nil)
	if got := decodeBody[[]store.Report](t, w); len(got) != 1 {
		t.Errorf("expected 1 report, got %d", len(got))
	}
}

func TestAuditLogs(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, _ := setupServer(ms)
	ms.AuditLogs = append(ms.AuditLogs,
		events.New("actor-1", events.EntityUser, "u1", events.ActionCreated, nil),
		events.New("actor-2", events.EntityProject, "p1", events.ActionUpdated, nil),
		events.New("actor-1", events.EntityUser, "u1", events.ActionUpdated, nil),
	)

	w := do(t, srv, "GET", "/api/v1/audit-logs?entity=user&entity_id=u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	entries := decodeBody[[]events.Entry](t, w)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != events.ActionUpdated {
		t.Errorf("expected newest first, got %s", entries[0].Action)
	}

	w = do(t, srv, "GET", "/api/v1/audit-logs?actor_id=actor-2&limit=1", nil)
	if got := decodeBody[[]events.Entry](t, w); len(got) != 1 || got[0].Entity != events.EntityProject {
		t.Errorf("expected the actor-2 project entry, got %+v", got)
	}
}

func TestSetCallAnalysis_TooLarge(t *testing.T) {
	ms := testutil.NewMockStore()
	srv, _ := setupServer(ms)
	u, p := seed(t, srv)
	c := decodeBody[store.Call](t, do(t, srv, "POST", "/api/v1/calls", map[string]any{"project_id": p.ID, "user_id": u.ID}))

	big := `{"notes":"` + strings.Repeat("a", maxAnalysisBytes) + `"}`
	w := do(t, srv, "PUT", "/api/v1/calls/"+c.ID+"/analysis", big)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
	if len(ms.Calls[c.ID].Analysis) != 0 {
		t.Error("expected oversized analysis not to be stored")
	}
}
