package workflow

import (
	"context"
	"time"

	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agent-qa/backend/internal/workflow"

// Logger is the logging surface the workflow needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func orNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// Recorder receives run and step measurements.
type Recorder interface {
	StepCompleted(step string, outcome string, d time.Duration)
	RunCompleted(outcome string, iterations, score int, d time.Duration)
	SearchDegraded()
	ScoreParseFailed()
}

type nopRecorder struct{}

func (nopRecorder) StepCompleted(string, string, time.Duration)  {}
func (nopRecorder) RunCompleted(string, int, int, time.Duration) {}
func (nopRecorder) SearchDegraded()                              {}
func (nopRecorder) ScoreParseFailed()                            {}

func orNopRecorder(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

// Outcome labels passed to a Recorder.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// StepHook is called after every successful step with the node that ran and
// the state before and after it.
type StepHook func(node Node, before, after State)

// Dependencies are the collaborators of an Engine. Search may be nil.
type Dependencies struct {
	Questions QuestionReader
	Results   ResultWriter
	LLM       llm.Client
	Search    search.Searcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sends measurements to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = orNopRecorder(r) }
}

// WithStepHook registers a hook invoked after every step.
func WithStepHook(h StepHook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, h) }
}

type step interface {
	Run(ctx context.Context, s State) (State, error)
}

// Engine drives one question through the state machine. It is safe for
// concurrent use; each Run owns its State.
type Engine struct {
	deps     Dependencies
	cfg      Config
	logger   Logger
	recorder Recorder
	tracer   trace.Tracer
	hooks    []StepHook
}

// NewEngine creates an Engine.
func NewEngine(deps Dependencies, cfg Config, logger Logger, opts ...Option) *Engine {
	e := &Engine{
		deps:     deps,
		cfg:      cfg,
		logger:   orNop(logger),
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) steps() map[Node]step {
	return map[Node]step{
		NodeLookup:          NewQuestionLookup(e.deps.Questions, e.logger),
		NodeRetrieveContext: NewContextRetriever(e.deps.Search, e.cfg.SearchResults, e.logger, e.recorder),
		NodeGenerate:        NewAnswerGenerator(e.deps.LLM, e.logger),
		NodeEvaluate:        NewAnswerScorer(e.deps.LLM, e.cfg, e.logger, e.recorder),
		NodePersist:         NewResultPersister(e.deps.Results, e.logger),
	}
}

// Run executes the workflow for a question. On failure it returns the last
// state that completed successfully together with the error; no further
// steps run after a failure.
func (e *Engine) Run(ctx context.Context, questionID, agentID string) (State, error) {
	if questionID == "" {
		return State{}, InvalidInput("question id is required")
	}

	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("question.id", questionID),
		attribute.String("agent.id", agentID),
	))
	defer span.End()

	started := time.Now()
	state := NewState(questionID, agentID)
	steps := e.steps()
	e.logger.Info("workflow started", "question_id", questionID, "agent_id", agentID)

	for node := NodeStart; node != NodeEnd; node = Transition(node, state, e.cfg) {
		st, ok := steps[node]
		if !ok {
			continue
		}
		next, err := e.runStep(ctx, node, st, state)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.recorder.RunCompleted(OutcomeError, state.Iterations, state.CurrentScore, time.Since(started))
			e.logger.Error("workflow failed", "question_id", questionID, "step", node.String(), "error", err)
			return state, err
		}
		for _, h := range e.hooks {
			h(node, state, next)
		}
		state = next
	}

	span.SetAttributes(
		attribute.Int("workflow.iterations", state.Iterations),
		attribute.Int("workflow.score", state.CurrentScore),
	)
	e.recorder.RunCompleted(OutcomeOK, state.Iterations, state.CurrentScore, time.Since(started))
	e.logger.Info("workflow completed", "question_id", questionID, "iterations", state.Iterations, "score", state.CurrentScore)
	return state, nil
}

func (e *Engine) runStep(ctx context.Context, node Node, st step, s State) (State, error) {
	ctx, span := e.tracer.Start(ctx, "workflow."+node.String())
	defer span.End()

	started := time.Now()
	next, err := st.Run(ctx, s)
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	e.recorder.StepCompleted(node.String(), outcome, time.Since(started))
	return next, err
}
