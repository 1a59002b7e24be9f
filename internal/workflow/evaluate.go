package workflow

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"agent-qa/backend/internal/llm"
)

// AnswerScorer scores the newest answer and applies the termination rule.
type AnswerScorer struct {
	llm      llm.Client
	cfg      Config
	logger   Logger
	recorder Recorder
}

// NewAnswerScorer creates an AnswerScorer.
func NewAnswerScorer(client llm.Client, cfg Config, logger Logger, recorder Recorder) *AnswerScorer {
	return &AnswerScorer{llm: client, cfg: cfg, logger: orNop(logger), recorder: orNopRecorder(recorder)}
}

// Run sets CurrentScore and, when the run is done, FinalAnswer.
func (e *AnswerScorer) Run(ctx context.Context, s State) (State, error) {
	latest, ok := s.LatestAnswer()
	if !ok {
		e.logger.Warn("no answers to evaluate", "question_id", s.QuestionID)
		return s, nil
	}

	prompt, err := render(scorePrompt, struct{ Question, Answer string }{s.Question, latest})
	if err != nil {
		return s, NewError(KindGeneration, NodeEvaluate, "failed to render prompt", err)
	}

	req := scoreParams
	req.Prompt = prompt
	text, err := e.llm.Complete(ctx, req)
	if err != nil {
		return s, NewError(KindGeneration, NodeEvaluate, "scoring completion failed", err)
	}

	score, ok := ParseScore(text)
	if !ok {
		e.recorder.ScoreParseFailed()
		if e.cfg.ScoreParsePolicy == ScoreParseFail {
			return s, NewError(KindScoreParse, NodeEvaluate, "unparseable score "+strconv.Quote(text), nil)
		}
		e.logger.Warn("failed to parse score, using 0", "question_id", s.QuestionID, "response", text)
		score = 0
	}

	next := s.clone()
	next.CurrentScore = score
	if e.cfg.Done(next) {
		final := latest
		next.FinalAnswer = &final
		e.logger.Info("final answer determined", "question_id", s.QuestionID, "score", score, "iterations", s.Iterations)
	} else {
		e.logger.Debug("answer scored below threshold", "question_id", s.QuestionID, "score", score, "iterations", s.Iterations)
	}
	return next, nil
}

// ParseScore reads a leading integer, optionally signed, from the reply,
// ignoring surrounding whitespace and any trailing text ("85/100" is 85).
// Values beyond the int range saturate.
func ParseScore(text string) (int, bool) {
	s := strings.TrimSpace(text)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if errors.Is(err, strconv.ErrRange) {
		// Atoi saturates at the int bounds.
		return n, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}
