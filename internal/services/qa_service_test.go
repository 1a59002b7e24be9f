package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/workflow"
	"agent-qa/backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingTracker struct {
	started, finished atomic.Int32
}

func (c *countingTracker) RunStarted()  { c.started.Add(1) }
func (c *countingTracker) RunFinished() { c.finished.Add(1) }

func TestQAService_Answer(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	runner := new(MockRunner)

	repo.On("GetAgent", mock.Anything, "tech-agent").Return(&models.Agent{ID: "tech-agent"}, nil)
	repo.On("GetQuestion", mock.Anything, "q1").Return(&models.Question{ID: "q1", Content: "What is 2+2?"}, nil)
	runner.On("Run", mock.Anything, "q1", "tech-agent").Return(workflow.State{}, nil).Once()
	repo.On("LatestAnswer", mock.Anything, "q1").Return(&models.Answer{ID: "a1", Content: "4", Score: 90}, nil)

	svc := NewQAService(repo, runner, nil, nil)
	answer, err := svc.Answer(ctx, "q1", "tech-agent")
	require.NoError(t, err)
	assert.Equal(t, "4", answer.Content)
	runner.AssertExpectations(t)
}

func TestQAService_AnswerOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := new(MockRepository)
	runner := new(MockRunner)

	repo.On("GetAgent", mock.Anything, "tech-agent").Return(&models.Agent{ID: "tech-agent"}, nil)
	repo.On("GetQuestion", mock.Anything, "q1").Return(&models.Question{ID: "q1", Content: "What is 2+2?"}, nil)
	runner.On("Run", mock.Anything, "q1", "tech-agent").
		Run(func(args mock.Arguments) {
			assert.NoError(t, args.Get(0).(context.Context).Err())
		}).
		Return(workflow.State{}, nil).Once()
	repo.On("LatestAnswer", mock.Anything, "q1").Return(&models.Answer{ID: "a1", Content: "4", Score: 90}, nil)

	answer, err := NewQAService(repo, runner, nil, nil).Answer(ctx, "q1", "tech-agent")
	require.NoError(t, err)
	assert.Equal(t, "4", answer.Content)
	runner.AssertExpectations(t)
}

func TestQAService_AnswerValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("missing ids", func(t *testing.T) {
		_, err := NewQAService(new(MockRepository), new(MockRunner), nil, nil).Answer(ctx, "", "a")
		assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	})

	t.Run("unknown agent", func(t *testing.T) {
		repo := new(MockRepository)
		runner := new(MockRunner)
		repo.On("GetAgent", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

		_, err := NewQAService(repo, runner, nil, nil).Answer(ctx, "q1", "ghost")
		assert.ErrorIs(t, err, workflow.ErrNotFound)
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown question", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetAgent", mock.Anything, "a1").Return(&models.Agent{ID: "a1"}, nil)
		repo.On("GetQuestion", mock.Anything, "q404").Return(nil, repository.ErrNotFound)

		_, err := NewQAService(repo, new(MockRunner), nil, nil).Answer(ctx, "q404", "a1")
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("run failure propagates", func(t *testing.T) {
		repo := new(MockRepository)
		runner := new(MockRunner)
		repo.On("GetAgent", mock.Anything, "a1").Return(&models.Agent{ID: "a1"}, nil)
		repo.On("GetQuestion", mock.Anything, "q1").Return(&models.Question{ID: "q1"}, nil)
		runner.On("Run", mock.Anything, "q1", "a1").
			Return(workflow.State{}, workflow.NewError(workflow.KindGeneration, workflow.NodeGenerate, "text completion failed", nil))

		_, err := NewQAService(repo, runner, nil, nil).Answer(ctx, "q1", "a1")
		assert.ErrorIs(t, err, workflow.ErrGeneration)
		repo.AssertNotCalled(t, "LatestAnswer", mock.Anything, mock.Anything)
	})
}

func TestQAService_AskDispatchesRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := new(MockRepository)
	runner := new(MockRunner)
	m := new(MockLLM)
	tracker := &countingTracker{}

	repo.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
	repo.On("CreateQuestion", mock.Anything, mock.AnythingOfType("*models.Question")).Return(nil)
	repo.On("ListAgents", mock.Anything, repository.AgentOrderByPerformance).Return(testAgents(), nil)
	m.On("Complete", mock.Anything, mock.Anything).Return("Specialization: Programming\nConfidence: 90", nil)

	started := make(chan struct{})
	runner.On("Run", mock.Anything, mock.Anything, "tech-agent").
		Run(func(args mock.Arguments) {
			<-started
			assert.NoError(t, args.Get(0).(context.Context).Err())
		}).
		Return(workflow.State{}, nil).Once()

	svc := NewQAService(repo, runner, NewAgentSelector(repo, m, nil), nil, WithRunTracker(tracker))
	res, err := svc.Ask(ctx, "u1", "  How do goroutines work?  ")
	require.NoError(t, err)

	// The request context ending must not cancel the background run.
	cancel()
	close(started)
	svc.Wait()

	assert.Equal(t, "How do goroutines work?", res.Question.Content)
	assert.Equal(t, models.QuestionStatusPending, res.Question.Status)
	assert.Equal(t, "tech-agent", res.Agent.ID)
	assert.Equal(t, 90, res.Confidence)
	runner.AssertCalled(t, "Run", mock.Anything, res.Question.ID, "tech-agent")
	assert.Equal(t, int32(1), tracker.started.Load())
	assert.Equal(t, int32(1), tracker.finished.Load())
}

func TestQAService_AskErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		_, err := NewQAService(new(MockRepository), new(MockRunner), nil, nil).Ask(ctx, "u1", "   ")
		assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetUser", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)
		_, err := NewQAService(repo, new(MockRunner), nil, nil).Ask(ctx, "ghost", "hi")
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("no agents", func(t *testing.T) {
		repo := new(MockRepository)
		runner := new(MockRunner)
		repo.On("GetUser", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil)
		repo.On("ListAgents", mock.Anything, mock.Anything).Return([]*models.Agent{}, nil)

		svc := NewQAService(repo, runner, NewAgentSelector(repo, new(MockLLM), nil), nil)
		_, err := svc.Ask(ctx, "u1", "hi")
		assert.ErrorIs(t, err, workflow.ErrNotFound)
		svc.Wait()
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CreateQuestion", mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetUser", mock.Anything, "u1").Return(nil, errors.New("connection reset"))
		_, err := NewQAService(repo, new(MockRunner), nil, nil).Ask(ctx, "u1", "hi")
		assert.ErrorIs(t, err, workflow.ErrPersistence)
	})
}

func TestQAService_Reconcile(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListQuestions", mock.Anything, repository.QuestionFilter{Status: models.QuestionStatusPending, WithAnswers: true}).
		Return([]*models.Question{
			{ID: "stuck", Answers: []*models.Answer{{ID: "a1"}}},
			{ID: "waiting"},
		}, nil)
	repo.On("UpdateQuestionStatus", mock.Anything, "stuck", models.QuestionStatusAnswered).Return(nil).Once()

	n, err := NewQAService(repo, new(MockRunner), nil, nil).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateQuestionStatus", mock.Anything, "waiting", mock.Anything)
}
