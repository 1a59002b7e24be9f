package workflow

import (
	"context"
	"math"
	"strings"
	"testing"

	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/search"
	"agent-qa/backend/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuestionLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("fills question text", func(t *testing.T) {
		store := newMemStore(&models.Question{ID: "q1", Content: "What is 2+2?"})
		out, err := NewQuestionLookup(store, nil).Run(ctx, NewState("q1", "a1"))
		require.NoError(t, err)
		assert.Equal(t, "What is 2+2?", out.Question)
	})

	t.Run("skips store when question is present", func(t *testing.T) {
		store := newMemStore()
		in := NewState("q1", "a1")
		in.Question = "already here"
		out, err := NewQuestionLookup(store, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Zero(t, store.reads)
	})

	t.Run("missing question", func(t *testing.T) {
		_, err := NewQuestionLookup(newMemStore(), nil).Run(ctx, NewState("nope", "a1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		store := newMemStore(&models.Question{ID: "q1", Content: "  "})
		_, err := NewQuestionLookup(store, nil).Run(ctx, NewState("q1", "a1"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		store := newMemStore()
		store.readErr = errBoom
		_, err := NewQuestionLookup(store, nil).Run(ctx, NewState("q1", "a1"))
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestContextRetriever(t *testing.T) {
	ctx := context.Background()
	in := NewState("q1", "a1")
	in.Question = "What is Go?"

	t.Run("formats results", func(t *testing.T) {
		s := new(MockSearcher)
		s.On("Search", mock.Anything, "What is Go?", 3).Return([]search.Result{
			{Title: "Go", Content: "A language.", URL: "https://go.dev"},
			{Content: "Untitled page.", URL: "https://example.com"},
		}, nil)

		out, err := NewContextRetriever(s, 3, nil, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "[1] Go\nA language.\nSource: https://go.dev\n\n[2] No Title\nUntitled page.\nSource: https://example.com", out.Context)
		s.AssertExpectations(t)
	})

	t.Run("empty results", func(t *testing.T) {
		s := new(MockSearcher)
		s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{}, nil)
		out, err := NewContextRetriever(s, 3, nil, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "", out.Context)
	})

	t.Run("search failure degrades", func(t *testing.T) {
		s := new(MockSearcher)
		s.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errBoom)
		spy := newRecorderSpy()
		out, err := NewContextRetriever(s, 3, nil, spy).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, FallbackContext, out.Context)
		assert.Equal(t, 1, spy.degraded)
	})

	t.Run("unconfigured search degrades", func(t *testing.T) {
		out, err := NewContextRetriever(nil, 3, nil, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, FallbackContext, out.Context)
	})

	t.Run("missing question skips search", func(t *testing.T) {
		s := new(MockSearcher)
		out, err := NewContextRetriever(s, 3, nil, nil).Run(ctx, NewState("q1", "a1"))
		require.NoError(t, err)
		assert.Equal(t, "", out.Context)
		s.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAnswerGenerator(t *testing.T) {
	ctx := context.Background()
	in := NewState("q1", "a1")
	in.Question = "What is 2+2?"
	in.Answers = []string{"four-ish"}
	in.Iterations = 1

	t.Run("appends answer", func(t *testing.T) {
		m := new(MockLLM)
		m.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
			return r.MaxOutputTokens == 2048 && r.Temperature == 0.7 &&
				strings.Contains(r.Prompt, "What is 2+2?") && strings.Contains(r.Prompt, "four-ish")
		})).Return("4", nil).Once()

		out, err := NewAnswerGenerator(m, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, []string{"four-ish", "4"}, out.Answers)
		assert.Equal(t, 2, out.Iterations)
		assert.Equal(t, []string{"four-ish"}, in.Answers)
		m.AssertExpectations(t)
	})

	t.Run("completion failure", func(t *testing.T) {
		m := new(MockLLM)
		m.onGenerate().Return("", errBoom).Once()
		out, err := NewAnswerGenerator(m, nil).Run(ctx, in)
		assert.ErrorIs(t, err, ErrGeneration)
		assert.Equal(t, in, out)
		m.AssertNumberOfCalls(t, "Complete", 1)
	})

	t.Run("empty completion", func(t *testing.T) {
		m := new(MockLLM)
		m.onGenerate().Return(" \n", nil).Once()
		_, err := NewAnswerGenerator(m, nil).Run(ctx, in)
		assert.ErrorIs(t, err, ErrGeneration)
	})

	t.Run("missing question", func(t *testing.T) {
		m := new(MockLLM)
		_, err := NewAnswerGenerator(m, nil).Run(ctx, NewState("q1", "a1"))
		assert.ErrorIs(t, err, ErrGeneration)
		m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})
}

func TestAnswerScorer(t *testing.T) {
	ctx := context.Background()
	in := NewState("q1", "a1")
	in.Question = "What is 2+2?"
	in.Answers = []string{"4"}
	in.Iterations = 1

	t.Run("threshold reached", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("90", nil).Once()
		out, err := NewAnswerScorer(m, DefaultConfig(), nil, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 90, out.CurrentScore)
		require.NotNil(t, out.FinalAnswer)
		assert.Equal(t, "4", *out.FinalAnswer)
	})

	t.Run("below threshold", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("50", nil).Once()
		out, err := NewAnswerScorer(m, DefaultConfig(), nil, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 50, out.CurrentScore)
		assert.Nil(t, out.FinalAnswer)
	})

	t.Run("unparseable coerced to zero", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("not a number", nil).Once()
		spy := newRecorderSpy()
		out, err := NewAnswerScorer(m, DefaultConfig(), nil, spy).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, 0, out.CurrentScore)
		assert.Nil(t, out.FinalAnswer)
		assert.Equal(t, 1, spy.parseFailed)
	})

	t.Run("unparseable with fail policy", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("not a number", nil).Once()
		cfg := DefaultConfig()
		cfg.ScoreParsePolicy = ScoreParseFail
		_, err := NewAnswerScorer(m, cfg, nil, nil).Run(ctx, in)
		assert.ErrorIs(t, err, ErrScoreParse)
	})

	t.Run("budget spent", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("10", nil).Once()
		last := in
		last.Answers = []string{"a", "b", "c"}
		last.Iterations = 3
		out, err := NewAnswerScorer(m, DefaultConfig(), nil, nil).Run(ctx, last)
		require.NoError(t, err)
		require.NotNil(t, out.FinalAnswer)
		assert.Equal(t, "c", *out.FinalAnswer)
	})

	t.Run("no answers", func(t *testing.T) {
		m := new(MockLLM)
		out, err := NewAnswerScorer(m, DefaultConfig(), nil, nil).Run(ctx, NewState("q1", "a1"))
		require.NoError(t, err)
		assert.Equal(t, 0, out.CurrentScore)
		m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("transport failure", func(t *testing.T) {
		m := new(MockLLM)
		m.onScore().Return("", errBoom).Once()
		_, err := NewAnswerScorer(m, DefaultConfig(), nil, nil).Run(ctx, in)
		assert.ErrorIs(t, err, ErrGeneration)
	})
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"85", 85, true},
		{" 85/100\n", 85, true},
		{"-5", -5, true},
		{"150", 150, true},
		{"Score: 85", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"99999999999999999999", math.MaxInt, true},
		{"-99999999999999999999 points", math.MinInt, true},
	}
	for _, tt := range tests {
		got, ok := ParseScore(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestResultPersister(t *testing.T) {
	ctx := context.Background()
	final := "4"
	in := NewState("q1", "tech-agent")
	in.FinalAnswer = &final
	in.CurrentScore = 90

	t.Run("writes answer then status", func(t *testing.T) {
		store := newMemStore(&models.Question{ID: "q1", Content: "What is 2+2?"})
		out, err := NewResultPersister(store, nil).Run(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		answers := store.answersFor("q1")
		require.Len(t, answers, 1)
		assert.Equal(t, "4", answers[0].Content)
		assert.Equal(t, 90, answers[0].Score)
		assert.Equal(t, "tech-agent", answers[0].AgentID)
		assert.NotEmpty(t, answers[0].ID)
		assert.Equal(t, models.QuestionStatusAnswered, store.questions["q1"].Status)
	})

	t.Run("no final answer", func(t *testing.T) {
		store := newMemStore(&models.Question{ID: "q1", Content: "x"})
		_, err := NewResultPersister(store, nil).Run(ctx, NewState("q1", "a1"))
		require.NoError(t, err)
		assert.Empty(t, store.answersFor("q1"))
	})

	t.Run("answer insert failure", func(t *testing.T) {
		store := newMemStore(&models.Question{ID: "q1", Content: "x"})
		store.answerErr = errBoom
		_, err := NewResultPersister(store, nil).Run(ctx, in)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Equal(t, models.QuestionStatusPending, store.questions["q1"].Status)
	})
}
