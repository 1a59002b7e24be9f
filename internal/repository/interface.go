package repository

import (
	"context"
	"errors"

	"agent-qa/backend/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// QuestionFilter narrows ListQuestions. Zero values mean "any".
type QuestionFilter struct {
	UserID string
	Status models.QuestionStatus
	// WithAnswers loads answers (newest first) with their agent summary.
	WithAnswers bool
}

// AgentOrder selects the ordering of ListAgents.
type AgentOrder int

const (
	AgentOrderByName AgentOrder = iota
	AgentOrderByPerformance
)

// UserStore manages users.
type UserStore interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// DeleteUser removes the user together with their questions and answers.
	DeleteUser(ctx context.Context, id string) error
}

// QuestionStore manages questions.
type QuestionStore interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]*models.Question, error)
	UpdateQuestionStatus(ctx context.Context, id string, status models.QuestionStatus) error
}

// AnswerStore manages answers.
type AnswerStore interface {
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	// LatestAnswer returns the newest answer for a question.
	LatestAnswer(ctx context.Context, questionID string) (*models.Answer, error)
}

// AgentStore manages agents.
type AgentStore interface {
	ListAgents(ctx context.Context, order AgentOrder) ([]*models.Agent, error)
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	CreateAgent(ctx context.Context, agent *models.Agent) error
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
}

// Repository is the full backing store used by the service.
type Repository interface {
	UserStore
	QuestionStore
	AnswerStore
	AgentStore
	Ping(ctx context.Context) error
}
