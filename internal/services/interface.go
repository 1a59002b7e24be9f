package services

import (
	"context"

	"agent-qa/backend/internal/workflow"
)

// Runner executes one workflow run for a question.
type Runner interface {
	Run(ctx context.Context, questionID, agentID string) (workflow.State, error)
}

// RunTracker is notified when background runs start and finish.
type RunTracker interface {
	RunStarted()
	RunFinished()
}

// Logger is the logging surface used by the services.
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
