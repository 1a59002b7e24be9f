package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindGeneration   Kind = "generation"
	KindScoreParse   Kind = "score_parse"
	KindPersistence  Kind = "persistence"
)

// Error is a workflow failure with a machine-readable kind and a
// human-readable detail.
type Error struct {
	Kind   Kind
	Step   Node
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	if e.Step != NodeStart {
		msg = fmt.Sprintf("%s (step %s)", msg, e.Step)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrGeneration   = &Error{Kind: KindGeneration}
	ErrScoreParse   = &Error{Kind: KindScoreParse}
	ErrPersistence  = &Error{Kind: KindPersistence}
)

// NewError builds an *Error.
func NewError(kind Kind, step Node, detail string, err error) *Error {
	return &Error{Kind: kind, Step: step, Detail: detail, Err: err}
}

// NotFound is shorthand for a not_found error outside the state machine.
func NotFound(detail string, err error) *Error {
	return NewError(KindNotFound, NodeStart, detail, err)
}

// InvalidInput is shorthand for an invalid_input error.
func InvalidInput(detail string) *Error {
	return NewError(KindInvalidInput, NodeStart, detail, nil)
}

// KindOf returns the kind of a workflow error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
