package workflow

import (
	"context"
	"time"

	"agent-qa/backend/pkg/models"

	"github.com/google/uuid"
)

// ResultWriter stores the outcome of a run.
type ResultWriter interface {
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	UpdateQuestionStatus(ctx context.Context, id string, status models.QuestionStatus) error
}

// ResultPersister writes the final answer, then marks the question answered.
type ResultPersister struct {
	results ResultWriter
	logger  Logger
	now     func() time.Time
}

// NewResultPersister creates a ResultPersister.
func NewResultPersister(results ResultWriter, logger Logger) *ResultPersister {
	return &ResultPersister{results: results, logger: orNop(logger), now: time.Now}
}

// Run returns the state unchanged. The answer row is written before the
// status flips; a failed status update leaves the answer in place.
func (p *ResultPersister) Run(ctx context.Context, s State) (State, error) {
	if !s.Terminal() {
		p.logger.Warn("no final answer to store", "question_id", s.QuestionID)
		return s, nil
	}

	answer := &models.Answer{
		ID:         uuid.New().String(),
		QuestionID: s.QuestionID,
		Content:    *s.FinalAnswer,
		Score:      s.CurrentScore,
		AgentID:    s.AgentID,
		CreatedAt:  p.now().UTC(),
	}
	if err := p.results.CreateAnswer(ctx, answer); err != nil {
		return s, NewError(KindPersistence, NodePersist, "failed to store answer for question "+s.QuestionID, err)
	}
	p.logger.Info("answer saved", "question_id", s.QuestionID, "answer_id", answer.ID)

	if err := p.results.UpdateQuestionStatus(ctx, s.QuestionID, models.QuestionStatusAnswered); err != nil {
		return s, NewError(KindPersistence, NodePersist,
			"answer "+answer.ID+" stored but question "+s.QuestionID+" status was not updated", err)
	}
	p.logger.Debug("question status updated", "question_id", s.QuestionID)
	return s, nil
}
