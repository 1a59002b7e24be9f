package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"
)

const (
	defaultConfidence = 70
	generalCap        = 60
	fallbackCap       = 50
)

var (
	specializationLine = regexp.MustCompile(`(?im)^\s*specialization:\s*(.+)$`)
	confidenceLine     = regexp.MustCompile(`(?im)^\s*confidence:\s*(\d+)`)
)

const selectorPrompt = `You route questions to the best specialist.
Analyze the question below and choose exactly one specialization from the list. Also rate your confidence in that choice as an integer from 0 to 100.

Question: %s

Specializations:
%s

Reply in this format:
Specialization: <specialization>
Confidence: <0-100>`

// AgentLister lists agents in a given order.
type AgentLister interface {
	ListAgents(ctx context.Context, order repository.AgentOrder) ([]*models.Agent, error)
}

// Selection is the agent chosen for a question.
type Selection struct {
	Agent          *models.Agent `json:"agent"`
	Confidence     int           `json:"confidence"`
	Specialization string        `json:"specialization,omitempty"`
}

// AgentSelector picks the agent whose specialization best fits a question.
type AgentSelector struct {
	agents AgentLister
	llm    llm.Client
	logger Logger
}

// NewAgentSelector creates a new AgentSelector.
func NewAgentSelector(agents AgentLister, client llm.Client, logger Logger) *AgentSelector {
	return &AgentSelector{agents: agents, llm: client, logger: orNop(logger)}
}

// Select returns nil when there are no agents. A failed classification falls
// back to the best performing agent.
func (s *AgentSelector) Select(ctx context.Context, question string) (*Selection, error) {
	agents, err := s.agents.ListAgents(ctx, repository.AgentOrderByPerformance)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	if len(agents) == 0 {
		s.logger.Warn("no agents registered")
		return nil, nil
	}

	reply, err := s.llm.Complete(ctx, llm.Request{
		Prompt:          fmt.Sprintf(selectorPrompt, question, strings.Join(specializations(agents), "\n")),
		MaxOutputTokens: 256,
		Temperature:     0.1,
	})
	if err != nil {
		s.logger.Warn("question analysis failed, using top agent", "error", err)
		return &Selection{Agent: agents[0], Confidence: min(defaultConfidence, fallbackCap)}, nil
	}

	spec, confidence := parseAnalysis(reply)
	s.logger.Debug("question analyzed", "specialization", spec, "confidence", confidence)
	return choose(agents, spec, confidence), nil
}

// choose expects agents ordered by performance, best first.
func choose(agents []*models.Agent, spec string, confidence int) *Selection {
	want := strings.ToLower(strings.TrimSpace(spec))
	if want != "" {
		for _, a := range agents {
			for _, tag := range a.Specialization {
				if strings.ToLower(tag) == want {
					return &Selection{Agent: a, Confidence: confidence, Specialization: tag}
				}
			}
		}
	}
	for _, a := range agents {
		for _, tag := range a.Specialization {
			if strings.Contains(strings.ToLower(tag), "general") {
				return &Selection{Agent: a, Confidence: min(confidence, generalCap), Specialization: tag}
			}
		}
	}
	return &Selection{Agent: agents[0], Confidence: min(confidence, fallbackCap)}
}

func parseAnalysis(reply string) (string, int) {
	var spec string
	if m := specializationLine.FindStringSubmatch(reply); m != nil {
		spec = strings.TrimSpace(m[1])
	}
	confidence := defaultConfidence
	if m := confidenceLine.FindStringSubmatch(reply); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			confidence = n
		}
	}
	return spec, confidence
}

func specializations(agents []*models.Agent) []string {
	seen := map[string]bool{}
	var out []string
	for _, a := range agents {
		for _, tag := range a.Specialization {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}
