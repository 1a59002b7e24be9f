// Package workflow implements the generate-evaluate-refine answer workflow:
// a small state machine that looks up a question, gathers web context,
// generates an answer, scores it, and loops until the answer is good enough
// or the iteration budget runs out, then persists the result.
package workflow

import (
	"agent-qa/backend/internal/config"
)

// Node is a state of the workflow state machine.
type Node int

const (
	NodeStart Node = iota
	NodeLookup
	NodeRetrieveContext
	NodeGenerate
	NodeEvaluate
	NodePersist
	NodeEnd
)

var nodeNames = [...]string{
	NodeStart:           "start",
	NodeLookup:          "lookup",
	NodeRetrieveContext: "retrieve_context",
	NodeGenerate:        "generate",
	NodeEvaluate:        "evaluate",
	NodePersist:         "persist",
	NodeEnd:             "end",
}

func (n Node) String() string {
	if n < 0 || int(n) >= len(nodeNames) {
		return "unknown"
	}
	return nodeNames[n]
}

// State is the record threaded through every step. Steps never mutate the
// State they receive; they return a successor.
type State struct {
	QuestionID   string   `json:"question_id"`
	AgentID      string   `json:"agent_id"`
	Question     string   `json:"question"`
	Context      string   `json:"context"`
	Answers      []string `json:"answers"`
	CurrentScore int      `json:"current_score"`
	Iterations   int      `json:"iterations"`
	FinalAnswer  *string  `json:"final_answer"`
}

// NewState seeds a fresh State for one run.
func NewState(questionID, agentID string) State {
	return State{
		QuestionID: questionID,
		AgentID:    agentID,
		Answers:    []string{},
	}
}

// clone returns a copy that shares no mutable memory with s.
func (s State) clone() State {
	c := s
	if s.Answers != nil {
		c.Answers = make([]string, len(s.Answers))
		copy(c.Answers, s.Answers)
	}
	if s.FinalAnswer != nil {
		v := *s.FinalAnswer
		c.FinalAnswer = &v
	}
	return c
}

// LatestAnswer returns the newest generated answer.
func (s State) LatestAnswer() (string, bool) {
	if len(s.Answers) == 0 {
		return "", false
	}
	return s.Answers[len(s.Answers)-1], true
}

// Terminal reports whether a final answer has been chosen.
func (s State) Terminal() bool {
	return s.FinalAnswer != nil
}

// ScoreParsePolicy decides what happens when the scorer's reply is not a number.
type ScoreParsePolicy string

const (
	// ScoreParseZero records a score of 0 and keeps going.
	ScoreParseZero ScoreParsePolicy = config.ScoreParseZero
	// ScoreParseFail aborts the run with ErrScoreParse.
	ScoreParseFail ScoreParsePolicy = config.ScoreParseFail
)

// Config holds the knobs of the state machine.
type Config struct {
	ScoreThreshold   int
	MaxIterations    int
	SearchResults    int
	ScoreParsePolicy ScoreParsePolicy
}

// DefaultConfig returns threshold 80, three iterations, three search results
// and zero-coercion of unparseable scores.
func DefaultConfig() Config {
	return Config{
		ScoreThreshold:   80,
		MaxIterations:    3,
		SearchResults:    3,
		ScoreParsePolicy: ScoreParseZero,
	}
}

// ConfigFrom maps the application configuration onto a workflow Config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		ScoreThreshold:   c.Workflow.ScoreThreshold,
		MaxIterations:    c.Workflow.MaxIterations,
		SearchResults:    c.Workflow.SearchResults,
		ScoreParsePolicy: ScoreParsePolicy(c.Workflow.ScoreParsePolicy),
	}
}

// Done is the termination rule: the answer is good enough or the iteration
// budget is spent.
func (c Config) Done(s State) bool {
	return s.CurrentScore >= c.ScoreThreshold || s.Iterations >= c.MaxIterations
}

// Transition is the pure transition function of the state machine.
func Transition(n Node, s State, cfg Config) Node {
	switch n {
	case NodeStart:
		return NodeLookup
	case NodeLookup:
		return NodeRetrieveContext
	case NodeRetrieveContext:
		return NodeGenerate
	case NodeGenerate:
		return NodeEvaluate
	case NodeEvaluate:
		if cfg.Done(s) {
			return NodePersist
		}
		return NodeGenerate
	default:
		return NodeEnd
	}
}
