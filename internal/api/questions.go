package api

import (
	"net/http"
	"strings"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"

	"github.com/labstack/echo/v4"
)

// CreateQuestionRequest is the body of POST /questions and POST /questions/ask.
type CreateQuestionRequest struct {
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

// CreateAnswerRequest is the body of POST /answers.
type CreateAnswerRequest struct {
	QuestionID string `json:"question_id"`
	AgentID    string `json:"agent_id"`
}

// ListQuestions returns every question with its answers
// (GET /api/v1/questions)
func (s *Server) ListQuestions(c echo.Context) error {
	questions, err := s.Repo.ListQuestions(c.Request().Context(), repository.QuestionFilter{WithAnswers: true})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(questions))
}

// ListPendingQuestions returns questions that have no final answer yet
// (GET /api/v1/questions/pending)
func (s *Server) ListPendingQuestions(c echo.Context) error {
	questions, err := s.Repo.ListQuestions(c.Request().Context(), repository.QuestionFilter{Status: models.QuestionStatusPending})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(questions))
}

// CreateQuestion stores a pending question
// (POST /api/v1/questions)
func (s *Server) CreateQuestion(c echo.Context) error {
	req, err := bindQuestion(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := s.Repo.GetUser(ctx, req.UserID); err != nil {
		return err
	}
	q := &models.Question{Content: req.Content, UserID: req.UserID, Status: models.QuestionStatusPending}
	if err := s.Repo.CreateQuestion(ctx, q); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, q)
}

// AskQuestion stores a question and answers it in the background
// (POST /api/v1/questions/ask)
func (s *Server) AskQuestion(c echo.Context) error {
	req, err := bindQuestion(c)
	if err != nil {
		return err
	}
	res, err := s.QA.Ask(c.Request().Context(), req.UserID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, res)
}

// GetLatestAnswer returns the newest answer for a question
// (GET /api/v1/questions/{id}/answer)
func (s *Server) GetLatestAnswer(c echo.Context, id string) error {
	answer, err := s.Repo.LatestAnswer(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, answer)
}

// CreateAnswer runs the answer workflow for a question and agent
// (POST /api/v1/answers)
func (s *Server) CreateAnswer(c echo.Context) error {
	var req CreateAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.QuestionID == "" || req.AgentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question_id and agent_id are required")
	}

	answer, err := s.QA.Answer(c.Request().Context(), req.QuestionID, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, answer)
}

func bindQuestion(c echo.Context) (*CreateQuestionRequest, error) {
	var req CreateQuestionRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" || req.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "content and user_id are required")
	}
	return &req, nil
}
