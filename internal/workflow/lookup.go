package workflow

import (
	"context"
	"errors"
	"strings"

	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"
)

// QuestionReader fetches questions by identifier.
type QuestionReader interface {
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
}

// QuestionLookup fills in the question text from the backing store.
type QuestionLookup struct {
	questions QuestionReader
	logger    Logger
}

// NewQuestionLookup creates a QuestionLookup.
func NewQuestionLookup(questions QuestionReader, logger Logger) *QuestionLookup {
	return &QuestionLookup{questions: questions, logger: orNop(logger)}
}

// Run is a no-op when the question text is already present.
func (l *QuestionLookup) Run(ctx context.Context, s State) (State, error) {
	if s.Question != "" {
		return s, nil
	}

	q, err := l.questions.GetQuestion(ctx, s.QuestionID)
	if errors.Is(err, repository.ErrNotFound) {
		return s, NewError(KindNotFound, NodeLookup, "question "+s.QuestionID+" does not exist", err)
	}
	if err != nil {
		return s, NewError(KindPersistence, NodeLookup, "failed to read question "+s.QuestionID, err)
	}
	if q == nil || strings.TrimSpace(q.Content) == "" {
		return s, NewError(KindNotFound, NodeLookup, "question "+s.QuestionID+" has no content", nil)
	}

	l.logger.Debug("question retrieved", "question_id", s.QuestionID)
	next := s.clone()
	next.Question = q.Content
	return next, nil
}
