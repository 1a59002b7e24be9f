// Package models defines the domain models for the question answering service
package models

import (
	"time"
)

// QuestionStatus represents the lifecycle status of a question
type QuestionStatus string

const (
	QuestionStatusPending  QuestionStatus = "pending"
	QuestionStatusAnswered QuestionStatus = "answered"
)

// UserRole represents what a user does in the system
type UserRole string

const (
	UserRoleQuestioner UserRole = "questioner"
	UserRoleAnswerer   UserRole = "answerer"
	UserRoleAdmin      UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleQuestioner, UserRoleAnswerer, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a person asking or answering questions
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      UserRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Agent is a persisted prompt configuration that answers are attributed to
type Agent struct {
	ID               string    `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Description      string    `json:"description" db:"description"`
	Specialization   []string  `json:"specialization" db:"specialization"`
	PromptTemplate   string    `json:"prompt_template" db:"prompt_template"`
	PerformanceScore float64   `json:"performance_score" db:"performance_score"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// AgentSummary is the slice of an agent embedded in answer listings
type AgentSummary struct {
	Name             string  `json:"name"`
	PerformanceScore float64 `json:"performance_score"`
}

// Question represents a question submitted by a user
type Question struct {
	ID        string         `json:"id" db:"id"`
	Content   string         `json:"content" db:"content"`
	UserID    string         `json:"user_id" db:"user_id"`
	Status    QuestionStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`

	// Populated by listing queries only
	Answers []*Answer `json:"answers,omitempty"`
}

// Answer is a finalized answer produced by a workflow run
type Answer struct {
	ID         string    `json:"id" db:"id"`
	QuestionID string    `json:"question_id" db:"question_id"`
	Content    string    `json:"content" db:"content"`
	Score      int       `json:"score" db:"score"`
	AgentID    string    `json:"agent_id" db:"agent_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Agent *AgentSummary `json:"agent,omitempty"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Kind     string `json:"kind,omitempty"`
}
