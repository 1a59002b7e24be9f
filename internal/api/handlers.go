// Package api contains the HTTP handlers for the question answering service
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/services"
	"agent-qa/backend/internal/workflow"
	"agent-qa/backend/pkg/models"

	"github.com/labstack/echo/v4"
)

const (
	serviceName = "agent-qa"
	version     = "1.0.0"
)

// QA is the workflow-facing part of the service layer.
type QA interface {
	Answer(ctx context.Context, questionID, agentID string) (*models.Answer, error)
	Ask(ctx context.Context, userID, content string) (*services.AskResult, error)
}

// Logger is the logging surface used by the handlers.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server holds the dependencies for the API server.
type Server struct {
	Repo   repository.Repository
	QA     QA
	Logger Logger
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates a new Server.
func NewServer(repo repository.Repository, qa QA, logger Logger) *Server {
	return &Server{Repo: repo, QA: qa, Logger: logger}
}

// GetHealth reports service health and database reachability
// (GET /api/v1/health)
func (s *Server) GetHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   version,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{"database": "ok"},
	}
	code := http.StatusOK
	if err := s.Repo.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Checks["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// HTTPErrorHandler renders every error as an RFC 7807 Problem Details
// response.
func (s *Server) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	problem := problemFor(err)
	problem.Instance = c.Request().URL.Path
	if problem.Status >= http.StatusInternalServerError && s.Logger != nil {
		s.Logger.Error("request failed", "method", c.Request().Method, "path", problem.Instance, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(problem.Status)
		return
	}
	body, mErr := json.Marshal(problem)
	if mErr != nil {
		_ = c.NoContent(http.StatusInternalServerError)
		return
	}
	_ = c.Blob(problem.Status, "application/problem+json", body)
}

func problemFor(err error) models.ProblemDetails {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		detail := http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
		return newProblem(he.Code, detail, "")
	}

	var we *workflow.Error
	if errors.As(err, &we) {
		return newProblem(statusForKind(we.Kind), we.Error(), string(we.Kind))
	}

	if errors.Is(err, repository.ErrNotFound) {
		return newProblem(http.StatusNotFound, err.Error(), string(workflow.KindNotFound))
	}
	return newProblem(http.StatusInternalServerError, err.Error(), "")
}

func statusForKind(k workflow.Kind) int {
	switch k {
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newProblem(status int, detail, kind string) models.ProblemDetails {
	return models.ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Kind:   kind,
	}
}
