package api

import (
	"net/http"
	"strings"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"

	"github.com/labstack/echo/v4"
)

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string          `json:"name"`
	Role models.UserRole `json:"role"`
}

// ListUsers returns every user
// (GET /api/v1/users)
func (s *Server) ListUsers(c echo.Context) error {
	users, err := s.Repo.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(users))
}

// CreateUser registers a user
// (POST /api/v1/users)
func (s *Server) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and role are required")
	}
	if !req.Role.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of questioner, answerer, admin")
	}

	user := &models.User{Name: req.Name, Role: req.Role}
	if err := s.Repo.CreateUser(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// DeleteUser removes a user with their questions and answers
// (DELETE /api/v1/users/{id})
func (s *Server) DeleteUser(c echo.Context, id string) error {
	if err := s.Repo.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserQuestions returns the questions asked by a user
// (GET /api/v1/users/{id}/questions)
func (s *Server) ListUserQuestions(c echo.Context, id string) error {
	ctx := c.Request().Context()
	if _, err := s.Repo.GetUser(ctx, id); err != nil {
		return err
	}
	questions, err := s.Repo.ListQuestions(ctx, repository.QuestionFilter{UserID: id, WithAnswers: true})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(questions))
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
