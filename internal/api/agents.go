package api

import (
	"net/http"
	"strings"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"

	"github.com/labstack/echo/v4"
)

// AgentRequest is the body of POST /agents and PUT /agents/{id}.
type AgentRequest struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Specialization   []string `json:"specialization"`
	PromptTemplate   string   `json:"prompt_template"`
	PerformanceScore *float64 `json:"performance_score,omitempty"`
}

func (r *AgentRequest) agent(id string) *models.Agent {
	a := &models.Agent{
		ID:             id,
		Name:           strings.TrimSpace(r.Name),
		Description:    r.Description,
		Specialization: r.Specialization,
		PromptTemplate: r.PromptTemplate,
	}
	if r.PerformanceScore != nil {
		a.PerformanceScore = *r.PerformanceScore
	}
	return a
}

// ListAgents returns every agent ordered by name
// (GET /api/v1/agents)
func (s *Server) ListAgents(c echo.Context) error {
	agents, err := s.Repo.ListAgents(c.Request().Context(), repository.AgentOrderByName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(agents))
}

// CreateAgent registers an agent
// (POST /api/v1/agents)
func (s *Server) CreateAgent(c echo.Context) error {
	var req AgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	agent := req.agent("")
	if agent.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if err := s.Repo.CreateAgent(c.Request().Context(), agent); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, agent)
}

// UpdateAgent replaces the editable fields of an agent
// (PUT /api/v1/agents/{id})
func (s *Server) UpdateAgent(c echo.Context, id string) error {
	var req AgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	agent := req.agent(id)
	if agent.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ctx := c.Request().Context()
	if err := s.Repo.UpdateAgent(ctx, agent); err != nil {
		return err
	}
	updated, err := s.Repo.GetAgent(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteAgent removes an agent
// (DELETE /api/v1/agents/{id})
func (s *Server) DeleteAgent(c echo.Context, id string) error {
	if err := s.Repo.DeleteAgent(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
