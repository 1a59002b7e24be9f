package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/search"
	"agent-qa/backend/pkg/models"

	"github.com/stretchr/testify/mock"
)

// MockLLM satisfies llm.Client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func isGeneration(req llm.Request) bool { return req.Temperature == answerParams.Temperature }
func isScoring(req llm.Request) bool    { return req.Temperature == scoreParams.Temperature }

func (m *MockLLM) onGenerate() *mock.Call {
	return m.On("Complete", mock.Anything, mock.MatchedBy(isGeneration))
}

func (m *MockLLM) onScore() *mock.Call {
	return m.On("Complete", mock.Anything, mock.MatchedBy(isScoring))
}

func (m *MockLLM) generations() int { return m.count(isGeneration) }
func (m *MockLLM) scorings() int    { return m.count(isScoring) }

func (m *MockLLM) count(match func(llm.Request) bool) int {
	n := 0
	for _, c := range m.Calls {
		if match(c.Arguments.Get(1).(llm.Request)) {
			n++
		}
	}
	return n
}

// MockSearcher satisfies search.Searcher
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Result), args.Error(1)
}

// memStore is an in-memory question and answer store.
type memStore struct {
	mu        sync.Mutex
	questions map[string]*models.Question
	answers   []*models.Answer
	reads     int

	readErr   error
	answerErr error
	statusErr error
}

func newMemStore(qs ...*models.Question) *memStore {
	s := &memStore{questions: map[string]*models.Question{}}
	for _, q := range qs {
		if q.Status == "" {
			q.Status = models.QuestionStatusPending
		}
		s.questions[q.ID] = q
	}
	return s
}

func (s *memStore) GetQuestion(_ context.Context, id string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	q, ok := s.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *q
	return &c, nil
}

func (s *memStore) CreateAnswer(_ context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answerErr != nil {
		return s.answerErr
	}
	c := *a
	s.answers = append(s.answers, &c)
	return nil
}

func (s *memStore) UpdateQuestionStatus(_ context.Context, id string, status models.QuestionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	q, ok := s.questions[id]
	if !ok {
		return repository.ErrNotFound
	}
	q.Status = status
	return nil
}

func (s *memStore) answersFor(questionID string) []*models.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Answer
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, a)
		}
	}
	return out
}

var errBoom = errors.New("boom")

// recorderSpy counts Recorder callbacks.
type recorderSpy struct {
	mu          sync.Mutex
	steps       map[string]int
	runs        map[string]int
	degraded    int
	parseFailed int
}

func newRecorderSpy() *recorderSpy {
	return &recorderSpy{steps: map[string]int{}, runs: map[string]int{}}
}

func (r *recorderSpy) StepCompleted(step, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step+"/"+outcome]++
}

func (r *recorderSpy) RunCompleted(outcome string, _, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[outcome]++
}

func (r *recorderSpy) SearchDegraded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.degraded++
}

func (r *recorderSpy) ScoreParseFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseFailed++
}
