package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/workflow"
	"agent-qa/backend/pkg/models"

	"github.com/google/uuid"
)

// AskResult is returned by Ask before the answer exists.
type AskResult struct {
	Question   *models.Question `json:"question"`
	Agent      *models.Agent    `json:"agent"`
	Confidence int              `json:"confidence"`
}

// QAService coordinates questions, agents and workflow runs.
type QAService struct {
	repo     repository.Repository
	engine   Runner
	selector *AgentSelector
	logger   Logger
	tracker  RunTracker

	inflight sync.WaitGroup
}

// Option configures a QAService.
type Option func(*QAService)

// WithRunTracker reports background runs to t.
func WithRunTracker(t RunTracker) Option {
	return func(s *QAService) { s.tracker = t }
}

// NewQAService creates a new QAService.
func NewQAService(repo repository.Repository, engine Runner, selector *AgentSelector, logger Logger, opts ...Option) *QAService {
	s := &QAService{
		repo:     repo,
		engine:   engine,
		selector: selector,
		logger:   orNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs the workflow synchronously and returns the newest stored
// answer for the question.
func (s *QAService) Answer(ctx context.Context, questionID, agentID string) (*models.Answer, error) {
	if questionID == "" || agentID == "" {
		return nil, workflow.InvalidInput("question_id and agent_id are required")
	}
	if _, err := s.repo.GetAgent(ctx, agentID); err != nil {
		return nil, lookupError("agent", agentID, err)
	}
	if _, err := s.repo.GetQuestion(ctx, questionID); err != nil {
		return nil, lookupError("question", questionID, err)
	}

	// Once started, a run completes even if the caller goes away.
	runCtx := context.WithoutCancel(ctx)
	if _, err := s.engine.Run(runCtx, questionID, agentID); err != nil {
		return nil, err
	}

	answer, err := s.repo.LatestAnswer(runCtx, questionID)
	if err != nil {
		return nil, lookupError("answer for question", questionID, err)
	}
	return answer, nil
}

// Ask picks an agent, stores a new question and starts the workflow in the
// background. The run outlives ctx.
func (s *QAService) Ask(ctx context.Context, userID, content string) (*AskResult, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" {
		return nil, workflow.InvalidInput("user_id and content are required")
	}
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, lookupError("user", userID, err)
	}

	// Pick the agent first so a question is never stored without a run.
	sel, err := s.selector.Select(ctx, content)
	if err != nil {
		return nil, persistenceError("failed to select an agent", err)
	}
	if sel == nil {
		return nil, workflow.NotFound("no agents are available to answer the question", nil)
	}

	q := &models.Question{
		ID:        uuid.New().String(),
		Content:   content,
		UserID:    userID,
		Status:    models.QuestionStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return nil, persistenceError("failed to create question", err)
	}

	s.dispatch(context.WithoutCancel(ctx), q.ID, sel.Agent.ID)
	return &AskResult{Question: q, Agent: sel.Agent, Confidence: sel.Confidence}, nil
}

func (s *QAService) dispatch(ctx context.Context, questionID, agentID string) {
	s.inflight.Add(1)
	if s.tracker != nil {
		s.tracker.RunStarted()
	}
	go func() {
		defer s.inflight.Done()
		if s.tracker != nil {
			defer s.tracker.RunFinished()
		}
		if _, err := s.engine.Run(ctx, questionID, agentID); err != nil {
			s.logger.Error("background run failed", "question_id", questionID, "agent_id", agentID, "error", err)
			return
		}
		s.logger.Info("background run finished", "question_id", questionID, "agent_id", agentID)
	}()
}

// Wait blocks until every background run has finished.
func (s *QAService) Wait() {
	s.inflight.Wait()
}

// Reconcile marks pending questions that already have a stored answer as
// answered. It returns the number of questions updated.
func (s *QAService) Reconcile(ctx context.Context) (int, error) {
	pending, err := s.repo.ListQuestions(ctx, repository.QuestionFilter{
		Status:      models.QuestionStatusPending,
		WithAnswers: true,
	})
	if err != nil {
		return 0, persistenceError("failed to list pending questions", err)
	}

	updated := 0
	for _, q := range pending {
		if len(q.Answers) == 0 {
			continue
		}
		if err := s.repo.UpdateQuestionStatus(ctx, q.ID, models.QuestionStatusAnswered); err != nil {
			return updated, persistenceError("failed to update question "+q.ID, err)
		}
		s.logger.Info("reconciled question", "question_id", q.ID)
		updated++
	}
	return updated, nil
}

func lookupError(what, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return workflow.NotFound(what+" "+id+" not found", err)
	}
	return persistenceError("failed to read "+what+" "+id, err)
}

func persistenceError(detail string, err error) error {
	return workflow.NewError(workflow.KindPersistence, workflow.NodeStart, detail, err)
}
