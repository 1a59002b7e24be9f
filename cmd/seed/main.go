package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"agent-qa/backend/internal/config"
	"agent-qa/backend/internal/logging"
	"agent-qa/backend/internal/repository"
	"agent-qa/backend/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var seedAgents = []models.Agent{
	{
		ID:               "tech-agent",
		Name:             "Tech Expert",
		Description:      "Specialized in programming, software development, and technology topics",
		Specialization:   []string{"Programming", "Technology", "Software Development"},
		PromptTemplate:   "You are a technology expert. Please provide a detailed technical explanation for the following question:\n\n{question}",
		PerformanceScore: 92,
	},
	{
		ID:               "business-agent",
		Name:             "Business Consultant",
		Description:      "Specialized in business strategy, management, and marketing",
		Specialization:   []string{"Business", "Management", "Marketing"},
		PromptTemplate:   "As a business consultant, please provide strategic insights for the following question:\n\n{question}",
		PerformanceScore: 88,
	},
	{
		ID:               "science-agent",
		Name:             "Science Researcher",
		Description:      "Specialized in scientific topics, research methodology, and analysis",
		Specialization:   []string{"Science", "Research", "Analysis"},
		PromptTemplate:   "As a scientific researcher, please explain the following concept in detail:\n\n{question}",
		PerformanceScore: 90,
	},
	{
		ID:               "general-agent",
		Name:             "Knowledge Generalist",
		Description:      "Broad knowledge across various topics and domains",
		Specialization:   []string{"General Knowledge", "Education", "Culture"},
		PromptTemplate:   "Please provide a comprehensive explanation for the following question:\n\n{question}",
		PerformanceScore: 85,
	},
}

func main() {
	var envFile, userName string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Insert the default agents and a demo user",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seed(cmd.Context(), envFile, userName)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", "", "Path to .env file")
	cmd.Flags().StringVar(&userName, "user", "Demo Questioner", "Name of the demo user")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func seed(ctx context.Context, envFile, userName string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, nil)

	pool, err := pgxpool.New(ctx, cfg.DB.ConnString())
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	for i := range seedAgents {
		agent := seedAgents[i]
		_, err := store.GetAgent(ctx, agent.ID)
		switch {
		case err == nil:
			logger.Info("Skipping existing agent", "id", agent.ID)
			continue
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to look up agent %s: %w", agent.ID, err)
		}
		if err := store.CreateAgent(ctx, &agent); err != nil {
			return fmt.Errorf("failed to create agent %s: %w", agent.ID, err)
		}
		logger.Info("Seeded agent", "id", agent.ID, "name", agent.Name)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if u.Name == userName {
			logger.Info("Found existing demo user", "id", u.ID)
			logger.Info("Seeding complete!")
			return nil
		}
	}
	user := &models.User{Name: userName, Role: models.UserRoleQuestioner}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	logger.Info("Seeded demo user", "id", user.ID, "name", user.Name)

	logger.Info("Seeding complete!")
	return nil
}
