package services

import (
	"context"

	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/workflow"
	"agent-qa/backend/pkg/models"

	"github.com/stretchr/testify/mock"
)

// MockRepository satisfies repository.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockRepository) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockRepository) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockRepository) ListQuestions(ctx context.Context, filter repository.QuestionFilter) ([]*models.Question, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockRepository) UpdateQuestionStatus(ctx context.Context, id string, status models.QuestionStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRepository) LatestAnswer(ctx context.Context, questionID string) (*models.Answer, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockRepository) ListAgents(ctx context.Context, order repository.AgentOrder) ([]*models.Agent, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Agent), args.Error(1)
}

func (m *MockRepository) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockRepository) CreateAgent(ctx context.Context, a *models.Agent) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRepository) UpdateAgent(ctx context.Context, a *models.Agent) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockRepository) DeleteAgent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) Ping(ctx context.Context) error { return m.Called(ctx).Error(0) }

// MockRunner satisfies Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, questionID, agentID string) (workflow.State, error) {
	args := m.Called(ctx, questionID, agentID)
	return args.Get(0).(workflow.State), args.Error(1)
}

// MockLLM satisfies llm.Client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
