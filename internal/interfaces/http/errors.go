package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moogar0880/problems"

	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/domain/workflow"
)

const problemContentType = "application/problem+json"

// ValidationProblem is a problem document carrying per-field errors
type ValidationProblem struct {
	*problems.Problem
	Errors []service.ValidationError `json:"errors"`
}

func writeProblem(c *gin.Context, status int, problem interface{}) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, problem)
}

func badRequest(c *gin.Context, detail string) {
	problem := problems.NewStatusProblem(http.StatusBadRequest).
		WithInstance(c.Request.URL.Path).
		WithType("bad_request").
		WithDetail(detail)

	writeProblem(c, http.StatusBadRequest, problem)
}

// respondError maps application errors onto problem documents
func (h *Handlers) respondError(c *gin.Context, err error) {
	path := c.Request.URL.Path

	if verrs, ok := service.AsValidationErrors(err); ok {
		problem := &ValidationProblem{
			Problem: problems.NewStatusProblem(http.StatusUnprocessableEntity).
				WithInstance(path).
				WithType("validation_error").
				WithDetail("one or more answers were rejected"),
			Errors: verrs.Errors,
		}
		writeProblem(c, http.StatusUnprocessableEntity, problem)
		return
	}

	status, typ := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, typ = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrForbidden):
		status, typ = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrConflict):
		status, typ = http.StatusConflict, "conflict"
	case errors.Is(err, workflow.ErrInvalidTransition):
		status, typ = http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrInvalidInput):
		status, typ = http.StatusBadRequest, "bad_request"
	}

	problem := problems.NewStatusProblem(status).
		WithInstance(path).
		WithType(typ)

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", path, "error", err)
		problem = problem.WithDetail("the request could not be completed")
	} else {
		problem = problem.WithDetail(err.Error())
	}

	writeProblem(c, status, problem)
}
