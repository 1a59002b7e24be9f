package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-qa/backend/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// foreign_key_violation
const pgForeignKeyViolation = "23503"

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger Logger
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool, logger Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrNotFound)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func ensureCreatedAt(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}

// ListUsers returns every user, newest first.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.Query(ctx, "SELECT id, name, role, created_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// GetUser retrieves a user by its ID.
func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx, "SELECT id, name, role, created_at FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Name, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "get user %s", id)
	}
	return &u, nil
}

// CreateUser inserts a user, assigning an ID and timestamp when missing.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	ensureID(&user.ID)
	ensureCreatedAt(&user.CreatedAt)
	_, err := s.db.Exec(ctx,
		"INSERT INTO users (id, name, role, created_at) VALUES ($1, $2, $3, $4)",
		user.ID, user.Name, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// DeleteUser removes the user, their questions and the answers to them in
// a single transaction.
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete user tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx,
		"DELETE FROM answers WHERE question_id IN (SELECT id FROM questions WHERE user_id = $1)", id); err != nil {
		return fmt.Errorf("delete answers of user %s: %w", id, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM questions WHERE user_id = $1", id); err != nil {
		return fmt.Errorf("delete questions of user %s: %w", id, err)
	}
	tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// CreateQuestion inserts a question. Status defaults to pending.
func (s *PostgresStore) CreateQuestion(ctx context.Context, question *models.Question) error {
	ensureID(&question.ID)
	ensureCreatedAt(&question.CreatedAt)
	if question.Status == "" {
		question.Status = models.QuestionStatusPending
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO questions (id, content, user_id, status, created_at) VALUES ($1, $2, $3, $4, $5)",
		question.ID, question.Content, question.UserID, question.Status, question.CreatedAt)
	if err != nil {
		return notFoundOr(err, "create question")
	}
	return nil
}

// GetQuestion retrieves a question by its ID.
func (s *PostgresStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	err := s.db.QueryRow(ctx,
		"SELECT id, content, user_id, status, created_at FROM questions WHERE id = $1", id).
		Scan(&q.ID, &q.Content, &q.UserID, &q.Status, &q.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "get question %s", id)
	}
	return &q, nil
}

// ListQuestions returns questions newest first, optionally with answers.
func (s *PostgresStore) ListQuestions(ctx context.Context, filter QuestionFilter) ([]*models.Question, error) {
	query := "SELECT id, content, user_id, status, created_at FROM questions WHERE 1=1"
	var args []any
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.Question
	byID := make(map[string]*models.Question)
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Content, &q.UserID, &q.Status, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, &q)
		byID[q.ID] = &q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if !filter.WithAnswers || len(questions) == 0 {
		return questions, nil
	}

	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	answers, err := s.answersFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		if q, ok := byID[a.QuestionID]; ok {
			q.Answers = append(q.Answers, a)
		}
	}
	return questions, nil
}

func (s *PostgresStore) answersFor(ctx context.Context, questionIDs []string) ([]*models.Answer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.question_id, a.content, a.score, a.agent_id, a.created_at, ag.name, ag.performance_score
		FROM answers a
		LEFT JOIN agents ag ON ag.id = a.agent_id
		WHERE a.question_id = ANY($1)
		ORDER BY a.created_at DESC`, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []*models.Answer
	for rows.Next() {
		var (
			a         models.Answer
			agentName *string
			agentPerf *float64
		)
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Content, &a.Score, &a.AgentID, &a.CreatedAt, &agentName, &agentPerf); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if agentName != nil {
			a.Agent = &models.AgentSummary{Name: *agentName}
			if agentPerf != nil {
				a.Agent.PerformanceScore = *agentPerf
			}
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

// UpdateQuestionStatus sets the status field of a question.
func (s *PostgresStore) UpdateQuestionStatus(ctx context.Context, id string, status models.QuestionStatus) error {
	tag, err := s.db.Exec(ctx, "UPDATE questions SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update question %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateAnswer inserts an answer record.
func (s *PostgresStore) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	ensureID(&answer.ID)
	ensureCreatedAt(&answer.CreatedAt)
	_, err := s.db.Exec(ctx,
		"INSERT INTO answers (id, question_id, content, score, agent_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		answer.ID, answer.QuestionID, answer.Content, answer.Score, answer.AgentID, answer.CreatedAt)
	if err != nil {
		return notFoundOr(err, "create answer")
	}
	if s.logger != nil {
		s.logger.Debug("answer stored", "answer_id", answer.ID, "question_id", answer.QuestionID)
	}
	return nil
}

// LatestAnswer returns the newest answer for a question.
func (s *PostgresStore) LatestAnswer(ctx context.Context, questionID string) (*models.Answer, error) {
	var a models.Answer
	err := s.db.QueryRow(ctx, `
		SELECT id, question_id, content, score, agent_id, created_at
		FROM answers WHERE question_id = $1
		ORDER BY created_at DESC LIMIT 1`, questionID).
		Scan(&a.ID, &a.QuestionID, &a.Content, &a.Score, &a.AgentID, &a.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "latest answer for %s", questionID)
	}
	return &a, nil
}

const agentColumns = "id, name, description, specialization, prompt_template, performance_score, created_at"

func scanAgent(row pgx.Row) (*models.Agent, error) {
	var a models.Agent
	if err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Specialization, &a.PromptTemplate, &a.PerformanceScore, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAgents returns every agent in the requested order.
func (s *PostgresStore) ListAgents(ctx context.Context, order AgentOrder) ([]*models.Agent, error) {
	orderBy := "name ASC"
	if order == AgentOrderByPerformance {
		orderBy = "performance_score DESC, name ASC"
	}
	rows, err := s.db.Query(ctx, "SELECT "+agentColumns+" FROM agents ORDER BY "+orderBy)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// GetAgent retrieves an agent by its ID.
func (s *PostgresStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	a, err := scanAgent(s.db.QueryRow(ctx, "SELECT "+agentColumns+" FROM agents WHERE id = $1", id))
	if err != nil {
		return nil, notFoundOr(err, "get agent %s", id)
	}
	return a, nil
}

// CreateAgent inserts an agent. New agents start with a zero performance score
// unless one is given.
func (s *PostgresStore) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.ID == "" {
		agent.ID = fmt.Sprintf("agent-%d", time.Now().UnixMilli())
	}
	ensureCreatedAt(&agent.CreatedAt)
	if agent.Specialization == nil {
		agent.Specialization = []string{}
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO agents ("+agentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		agent.ID, agent.Name, agent.Description, agent.Specialization, agent.PromptTemplate, agent.PerformanceScore, agent.CreatedAt)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

// UpdateAgent updates the editable fields of an agent.
func (s *PostgresStore) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.Specialization == nil {
		agent.Specialization = []string{}
	}
	tag, err := s.db.Exec(ctx,
		"UPDATE agents SET name = $1, description = $2, specialization = $3, prompt_template = $4 WHERE id = $5",
		agent.Name, agent.Description, agent.Specialization, agent.PromptTemplate, agent.ID)
	if err != nil {
		return fmt.Errorf("update agent %s: %w", agent.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAgent removes an agent.
func (s *PostgresStore) DeleteAgent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM agents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete agent %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
