package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/application/workflow"
	"github.com/garyjia/case-tracker/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Dependencies
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

// ResolveCaseRequest is the body of POST /api/templates/:id/cases
type ResolveCaseRequest struct {
	CaseID string `json:"case_id"`
	UserID string `json:"user_id"`
}

// ResolveCaseResponse wraps the resolved case
type ResolveCaseResponse struct {
	Created bool              `json:"created"`
	Case    *service.CaseView `json:"case"`
}

// SubmitStepRequest is the body of POST /api/templates/:id/submit
type SubmitStepRequest struct {
	CaseID  string                 `json:"case_id"`
	UserID  string                 `json:"user_id"`
	RoleID  string                 `json:"role_id"`
	Fields  map[string]interface{} `json:"fields"`
	Comment string                 `json:"comment"`
}

// ReassignRequest is the body of POST /api/cases/:id/reassign
type ReassignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// CommentRequest is the body of POST /api/cases/:id/comments
type CommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID string `json:"parent_id"`
}

// ListCasesRequest represents query parameters for listing cases
type ListCasesRequest struct {
	AssignedUserID string `form:"assigned_user_id"`
	TemplateID     string `form:"template_id"`
	Status         string `form:"status" binding:"omitempty,oneof=active pending completed abandoned"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

func (r ListCasesRequest) filter() port.CaseFilter {
	if r.Limit < 0 {
		r.Limit = 0
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return port.CaseFilter{
		AssignedUserID: r.AssignedUserID,
		WorkflowID:     r.TemplateID,
		Status:         r.Status,
		Limit:          r.Limit,
		Offset:         r.Offset,
	}
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.deps.Health != nil {
		healthy, components := h.deps.Health()
		resp.Components = components
		if !healthy {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, resp)
}

// ListRoles handles GET /api/roles
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.deps.Catalog.ListRoles(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, roles)
}

// CreateRole handles POST /api/roles
func (h *Handlers) CreateRole(c *gin.Context) {
	var def service.RoleDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		badRequest(c, fmt.Sprintf("invalid role: %v", err))
		return
	}
	if def.Author == "" {
		def.Author = actorFrom(c).DisplayName(service.DefaultAnonymousUser)
	}

	role, err := h.deps.Catalog.CreateRole(c.Request.Context(), def)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, role)
}

// ListQuestionTypes handles GET /api/question-types
func (h *Handlers) ListQuestionTypes(c *gin.Context) {
	types, err := h.deps.Catalog.ListQuestionTypes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, types)
}

// CreateQuestionType handles POST /api/question-types
func (h *Handlers) CreateQuestionType(c *gin.Context) {
	var def service.QuestionTypeDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		badRequest(c, fmt.Sprintf("invalid question type: %v", err))
		return
	}
	if def.Author == "" {
		def.Author = actorFrom(c).DisplayName(service.DefaultAnonymousUser)
	}

	qt, err := h.deps.Catalog.CreateQuestionType(c.Request.Context(), def)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, qt)
}

// CreateQuestion handles POST /api/questions
func (h *Handlers) CreateQuestion(c *gin.Context) {
	var def service.QuestionDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		badRequest(c, fmt.Sprintf("invalid question: %v", err))
		return
	}
	if def.Author == "" {
		def.Author = actorFrom(c).DisplayName(service.DefaultAnonymousUser)
	}

	q, err := h.deps.Catalog.CreateQuestion(c.Request.Context(), def)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, q)
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	templates, err := h.deps.Catalog.ListTemplates(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if templates == nil {
		templates = []*entity.WorkflowTemplate{}
	}
	respond(c, http.StatusOK, templates)
}

// CreateTemplate handles POST /api/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	var def service.TemplateDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		badRequest(c, fmt.Sprintf("invalid template: %v", err))
		return
	}
	if def.Author == "" {
		def.Author = actorFrom(c).DisplayName(service.DefaultAnonymousUser)
	}

	tmpl, err := h.deps.Catalog.CreateTemplate(c.Request.Context(), def)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, tmpl)
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	tmpl, err := h.deps.Catalog.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tmpl)
}

// DeleteTemplate handles DELETE /api/templates/:id
func (h *Handlers) DeleteTemplate(c *gin.Context) {
	if err := h.deps.Catalog.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSchema handles GET /api/templates/:id/schema
func (h *Handlers) GetSchema(c *gin.Context) {
	tmpl, err := h.deps.Catalog.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, service.Schema(tmpl))
}

// ResolveCase handles POST /api/templates/:id/cases
func (h *Handlers) ResolveCase(c *gin.Context) {
	var req ResolveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}

	actor := actorFrom(c)
	if req.UserID == "" {
		req.UserID = actor.UserID
	}

	ctx := c.Request.Context()
	kase, created, err := h.deps.Cases.ResolveOrCreateCase(ctx, c.Param("id"), req.CaseID, req.UserID, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.deps.Cases.GetCase(ctx, kase.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(c, status, ResolveCaseResponse{Created: created, Case: view})
}

// SubmitStep handles POST /api/templates/:id/submit
func (h *Handlers) SubmitStep(c *gin.Context) {
	var req SubmitStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid submission: %v", err))
		return
	}

	actor := actorFrom(c)
	if req.UserID == "" {
		req.UserID = actor.UserID
	}

	view, err := h.deps.Engine.SubmitStep(c.Request.Context(), workflow.SubmitRequest{
		TemplateID: c.Param("id"),
		CaseID:     req.CaseID,
		UserID:     req.UserID,
		RoleID:     req.RoleID,
		Fields:     req.Fields,
		Comment:    req.Comment,
		Actor:      actor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// ListCases handles GET /api/cases
func (h *Handlers) ListCases(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	cases, err := h.deps.Cases.ListCases(c.Request.Context(), req.filter())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cases)
}

// CaseStats handles GET /api/cases/stats
func (h *Handlers) CaseStats(c *gin.Context) {
	stats, err := h.deps.Cases.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, stats)
}

// ExportCases handles GET /api/cases/export
func (h *Handlers) ExportCases(c *gin.Context) {
	var req ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	ctx := c.Request.Context()
	histories, err := h.deps.Cases.ExportHistory(ctx, req.filter())
	if err != nil {
		h.respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.deps.Reports.WriteCases(ctx, &buf, histories); err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("cases-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetCase handles GET /api/cases/:id
func (h *Handlers) GetCase(c *gin.Context) {
	view, err := h.deps.Cases.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// DeleteCase handles DELETE /api/cases/:id
func (h *Handlers) DeleteCase(c *gin.Context) {
	if err := h.deps.Cases.DeleteCase(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DenyCase handles POST /api/cases/:id/deny
func (h *Handlers) DenyCase(c *gin.Context) {
	view, err := h.deps.Engine.Deny(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// AbandonCase handles POST /api/cases/:id/abandon
func (h *Handlers) AbandonCase(c *gin.Context) {
	view, err := h.deps.Engine.Abandon(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// ReassignCase handles POST /api/cases/:id/reassign
func (h *Handlers) ReassignCase(c *gin.Context) {
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid request: %v", err))
		return
	}

	view, err := h.deps.Engine.Reassign(c.Request.Context(), c.Param("id"), req.UserID, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// CaseHistory handles GET /api/cases/:id/history
func (h *Handlers) CaseHistory(c *gin.Context) {
	events, err := h.deps.Cases.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, events)
}

// AddComment handles POST /api/cases/:id/comments
func (h *Handlers) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Sprintf("invalid comment: %v", err))
		return
	}

	comment, err := h.deps.Cases.AddComment(c.Request.Context(), c.Param("id"), req.ParentID, req.Content, actorFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, comment)
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	userID, found := requireUser(c)
	if !found {
		return
	}
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	msgs, err := h.deps.Notifications.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, msgs)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID, found := requireUser(c)
	if !found {
		return
	}

	if err := h.deps.Notifications.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id"), "is_read": true})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID, found := requireUser(c)
	if !found {
		return
	}

	n, err := h.deps.Notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"updated": n})
}

func requireUser(c *gin.Context) (string, bool) {
	userID := actorFrom(c).UserID
	if userID == "" {
		badRequest(c, HeaderUserID+" header is required")
		return "", false
	}
	return userID, true
}
