package workflow

import (
	"context"
	"strings"

	"agent-qa/backend/internal/llm"
)

// AnswerGenerator asks the text-completion service for a new answer.
type AnswerGenerator struct {
	llm    llm.Client
	logger Logger
}

// NewAnswerGenerator creates an AnswerGenerator.
func NewAnswerGenerator(client llm.Client, logger Logger) *AnswerGenerator {
	return &AnswerGenerator{llm: client, logger: orNop(logger)}
}

// Run appends one generated answer and increments Iterations. It calls the
// service exactly once and never retries.
func (g *AnswerGenerator) Run(ctx context.Context, s State) (State, error) {
	if s.Question == "" {
		return s, NewError(KindGeneration, NodeGenerate, "question text is empty", nil)
	}

	prompt, err := render(answerPrompt, struct {
		Question, Context, PreviousAnswers string
	}{s.Question, s.Context, strings.Join(s.Answers, "\n")})
	if err != nil {
		return s, NewError(KindGeneration, NodeGenerate, "failed to render prompt", err)
	}

	req := answerParams
	req.Prompt = prompt
	text, err := g.llm.Complete(ctx, req)
	if err != nil {
		return s, NewError(KindGeneration, NodeGenerate, "text completion failed", err)
	}
	if strings.TrimSpace(text) == "" {
		return s, NewError(KindGeneration, NodeGenerate, "text completion returned an empty answer", nil)
	}

	next := s.clone()
	next.Answers = append(next.Answers, text)
	next.Iterations = s.Iterations + 1
	g.logger.Debug("answer generated", "question_id", s.QuestionID, "iteration", next.Iterations)
	return next, nil
}
