package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/container"
	"github.com/garyjia/case-tracker/internal/domain/entity"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type problemBody struct {
	Type     string                    `json:"type"`
	Title    string                    `json:"title"`
	Status   int                       `json:"status"`
	Detail   string                    `json:"detail"`
	Instance string                    `json:"instance"`
	Errors   []service.ValidationError `json:"errors"`
}

type testServer struct {
	router     *gin.Engine
	c          *container.Container
	templateID string
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &container.Config{Database: container.DatabaseConfig{Path: filepath.Join(t.TempDir(), "cases.db")}}
	c, err := container.NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })

	services := c.Services()
	srv := NewServer(DefaultServerConfig(), Dependencies{
		Engine:        c.Engine(),
		Catalog:       services.Catalog,
		Cases:         services.Case,
		Notifications: services.Notification,
		Reports:       c.Reports(),
		Health: func() (bool, interface{}) {
			h := c.Health()
			return h.Overall, h.Components
		},
	}, c.KVLogger())

	ts := &testServer{router: srv.Router(), c: c}
	ts.templateID = ts.seed(t)
	return ts
}

// seed creates a two stage template through the API
func (ts *testServer) seed(t *testing.T) string {
	t.Helper()

	for _, role := range []service.RoleDefinition{{ID: "clerk", Name: "Clerk"}, {ID: "manager", Name: "Manager"}} {
		w := ts.do(t, http.MethodPost, "/api/roles", role, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := ts.do(t, http.MethodPost, "/api/question-types", service.QuestionTypeDefinition{
		ID: "digits", Type: "text", HasRegex: true, RegexStr: "[0-9]+",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/questions", service.QuestionDefinition{
		ID: "amount", Text: "Amount", TypeID: "digits", Required: true,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/templates", service.TemplateDefinition{
		ID:          "expense",
		Title:       "Expense claim",
		RoleIDs:     []string{"clerk", "manager"},
		QuestionIDs: []string{"amount"},
		Stages: []service.StageDefinition{
			{ID: "review", Name: "Review", Order: 1, IsFirst: true},
			{ID: "approve", Name: "Approve", Order: 2, IsLast: true},
		},
	}, map[string]string{HeaderUsername: "alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tmpl entity.WorkflowTemplate
	decodeData(t, w, &tmpl)
	assert.Equal(t, "alice", tmpl.Author)
	return tmpl.ID
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) problemBody {
	t.Helper()
	assert.Equal(t, problemContentType, w.Header().Get("Content-Type"))
	var p problemBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func (ts *testServer) submit(t *testing.T, req SubmitStepRequest) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, "/api/templates/"+ts.templateID+"/submit", req,
		map[string]string{HeaderUserID: "u1", HeaderUsername: "bob"})
}

func TestHealthCheck(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestCatalogEndpoints(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/api/roles", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roles []entity.Role
	decodeData(t, w, &roles)
	assert.Len(t, roles, 2)

	w = ts.do(t, http.MethodGet, "/api/templates", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var templates []entity.WorkflowTemplate
	decodeData(t, w, &templates)
	require.Len(t, templates, 1)
	assert.Equal(t, "Expense claim", templates[0].Title)

	w = ts.do(t, http.MethodGet, "/api/templates/"+ts.templateID+"/schema", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fields []service.FieldSpec
	decodeData(t, w, &fields)
	require.Len(t, fields, 1)
	assert.Equal(t, "question_amount", fields[0].FieldKey)
	assert.True(t, fields[0].Required)

	w = ts.do(t, http.MethodGet, "/api/templates/missing", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeProblem(t, w).Type)
}

func TestCreateTemplate_Invalid(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodPost, "/api/templates", service.TemplateDefinition{
		Title:       "No stages",
		RoleIDs:     []string{"clerk"},
		QuestionIDs: []string{"amount"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/templates", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeProblem(t, rec).Type)
}

func TestResolveCase(t *testing.T) {
	ts := setupServer(t)
	path := "/api/templates/" + ts.templateID + "/cases"

	w := ts.do(t, http.MethodPost, path, ResolveCaseRequest{}, map[string]string{HeaderUserID: "u1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created ResolveCaseResponse
	decodeData(t, w, &created)
	assert.True(t, created.Created)
	assert.Equal(t, "u1", created.Case.Case.AssignedUserID)
	assert.Equal(t, "Review", created.Case.CurrentStage)

	w = ts.do(t, http.MethodPost, path, ResolveCaseRequest{CaseID: created.Case.Case.ID}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved ResolveCaseResponse
	decodeData(t, w, &resolved)
	assert.False(t, resolved.Created)
	assert.Equal(t, created.Case.Case.ID, resolved.Case.Case.ID)
}

func TestSubmitStep_Flow(t *testing.T) {
	ts := setupServer(t)

	w := ts.submit(t, SubmitStepRequest{
		Fields:  map[string]interface{}{"question_amount": "120"},
		Comment: "first pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view service.CaseView
	decodeData(t, w, &view)
	assert.Equal(t, entity.StatusPending, view.Case.Status)
	assert.Equal(t, "Approve", view.CurrentStage)
	assert.Equal(t, "manager", view.Case.CurrentRoleID)
	assert.Equal(t, "bob", view.Case.ModifiedBy)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "first pass", view.Comments[0].Content)

	caseID := view.Case.ID
	w = ts.submit(t, SubmitStepRequest{
		CaseID: caseID,
		Fields: map[string]interface{}{"question_amount": "120"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &view)
	assert.Equal(t, entity.StatusCompleted, view.Case.Status)

	w = ts.do(t, http.MethodGet, "/api/cases/"+caseID+"/history", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	decodeData(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, "stage_change", history[0]["event_type"])
	assert.Equal(t, "status_change", history[1]["event_type"])

	w = ts.submit(t, SubmitStepRequest{
		CaseID: caseID,
		Fields: map[string]interface{}{"question_amount": "120"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decodeProblem(t, w).Type)
}

func TestSubmitStep_ValidationFailure(t *testing.T) {
	ts := setupServer(t)

	w := ts.submit(t, SubmitStepRequest{
		Fields: map[string]interface{}{"question_amount": "abc"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	p := decodeProblem(t, w)
	assert.Equal(t, "validation_error", p.Type)
	assert.Equal(t, http.StatusUnprocessableEntity, p.Status)
	assert.Equal(t, http.StatusText(http.StatusUnprocessableEntity), p.Title)
	assert.Equal(t, "/api/templates/"+ts.templateID+"/submit", p.Instance)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "amount", p.Errors[0].QuestionID)

	w = ts.do(t, http.MethodGet, "/api/cases", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cases []entity.Case
	decodeData(t, w, &cases)
	assert.Empty(t, cases)
}

func TestSubmitStep_UnknownRole(t *testing.T) {
	ts := setupServer(t)

	w := ts.submit(t, SubmitStepRequest{
		RoleID: "ghost",
		Fields: map[string]interface{}{"question_amount": "1"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseAdministration(t *testing.T) {
	ts := setupServer(t)

	w := ts.submit(t, SubmitStepRequest{Fields: map[string]interface{}{"question_amount": "5"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view service.CaseView
	decodeData(t, w, &view)
	caseID := view.Case.ID

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/deny", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &view)
	assert.Equal(t, "Review", view.CurrentStage)
	assert.Equal(t, entity.StatusPending, view.Case.Status)

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/reassign", ReassignRequest{UserID: "u2"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &view)
	assert.Equal(t, "u2", view.Case.AssignedUserID)

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/reassign", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/comments", CommentRequest{Content: "looks fine"},
		map[string]string{HeaderUserID: "u2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment entity.Comment
	decodeData(t, w, &comment)

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/comments",
		CommentRequest{Content: "agreed", ParentID: comment.ID}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/cases/"+caseID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &view)
	require.Len(t, view.Comments, 1)
	require.Len(t, view.Comments[0].Replies, 1)

	w = ts.do(t, http.MethodPost, "/api/cases/"+caseID+"/abandon", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decodeData(t, w, &view)
	assert.Equal(t, entity.StatusAbandoned, view.Case.Status)

	w = ts.do(t, http.MethodGet, "/api/cases/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats entity.CaseStats
	decodeData(t, w, &stats)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Abandoned)

	w = ts.do(t, http.MethodGet, "/api/cases?assigned_user_id=u2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cases []entity.Case
	decodeData(t, w, &cases)
	assert.Len(t, cases, 1)

	w = ts.do(t, http.MethodGet, "/api/cases?status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/templates/"+ts.templateID, nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/cases/"+caseID, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/cases/"+caseID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotifications(t *testing.T) {
	ts := setupServer(t)
	headers := map[string]string{HeaderUserID: "u1"}

	w := ts.do(t, http.MethodGet, "/api/notifications", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.submit(t, SubmitStepRequest{Fields: map[string]interface{}{"question_amount": "5"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/notifications?unread=true", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []entity.InternalMessage
	decodeData(t, w, &msgs)
	require.NotEmpty(t, msgs)

	w = ts.do(t, http.MethodPost, "/api/notifications/"+msgs[0].ID+"/read", nil, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/notifications/"+msgs[0].ID+"/read", nil, map[string]string{HeaderUserID: "someone-else"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/notifications/read-all", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/notifications?unread=true", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &msgs)
	assert.Empty(t, msgs)
}

func TestExportCases(t *testing.T) {
	ts := setupServer(t)

	w := ts.submit(t, SubmitStepRequest{Fields: map[string]interface{}{"question_amount": "42"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/cases/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Cases")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	history, err := f.GetRows("History")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
