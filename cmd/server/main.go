package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"

	"agent-qa/backend/internal/api"
	"agent-qa/backend/internal/config"
	"agent-qa/backend/internal/llm"
	"agent-qa/backend/internal/logging"
	"agent-qa/backend/internal/mcp"
	"agent-qa/backend/internal/observability"
	"agent-qa/backend/internal/repository"
	"agent-qa/backend/internal/search"
	"agent-qa/backend/internal/services"
	"agent-qa/backend/internal/tls"
	"agent-qa/backend/internal/workflow"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Agent QA service",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "Path to .env file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Mark pending questions that already have an answer as answered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reconcile(cmd.Context(), envFile)
		},
	})
	return root
}

// app holds everything both subcommands need.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	pool    *pgxpool.Pool
	store   *repository.PostgresStore
	metrics *observability.Metrics
	qa      *services.QAService
}

func bootstrap(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("configuration loading failed: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, nil)
	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"llm_model", cfg.LLM.Model,
		"llm_key_set", cfg.LLM.APIKey != "",
		"search_key_set", cfg.Search.APIKey != "",
		"score_threshold", cfg.Workflow.ScoreThreshold,
		"max_iterations", cfg.Workflow.MaxIterations,
	)

	pool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Info("Database connected")

	store := repository.NewPostgresStore(pool, logger)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("schema initialization failed: %w", err)
	}

	metrics := observability.NewMetrics(true)

	completion := llm.NewGeminiClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.Timeout)
	var searcher search.Searcher
	if cfg.Search.APIKey != "" {
		searcher = search.NewTavily(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.Depth, cfg.Search.Timeout)
	} else {
		logger.Warn("SEARCH_API_KEY is not set, answers will be generated without web context")
	}

	engine := workflow.NewEngine(workflow.Dependencies{
		Questions: store,
		Results:   store,
		LLM:       completion,
		Search:    searcher,
	}, workflow.ConfigFrom(cfg), logger.With("component", "workflow"), workflow.WithRecorder(metrics))

	selector := services.NewAgentSelector(store, completion, logger.With("component", "selector"))
	qa := services.NewQAService(store, engine, selector, logger, services.WithRunTracker(metrics))

	logger.Info("Service layer initialized")
	return &app{cfg: cfg, logger: logger, pool: pool, store: store, metrics: metrics, qa: qa}, nil
}

func serve(ctx context.Context, envFile string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.pool.Close()
	cfg, logger := a.cfg, a.logger

	e := newEcho(a)

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "address", addr, "tls", cfg.TLS.Enable)
		var err error
		if cfg.TLS.Enable {
			generated, tlsErr := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
			if tlsErr != nil {
				return tlsErr
			}
			if generated {
				logger.Warn("Generated self-signed certificate", "cert_file", cfg.TLS.CertFile)
			}
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			_ = server.Close()
		}

		logger.Info("Waiting for background runs")
		a.qa.Wait()
		logger.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}

func newEcho(a *app) *echo.Echo {
	logger := a.logger

	e := echo.New()
	e.HideBanner = true

	srv := api.NewServer(a.store, a.qa, logger)
	e.HTTPErrorHandler = srv.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("agent-qa"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			args := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				level = slog.LevelError
				args = append(args, "error", v.Error)
			}
			logger.Log(c.Request().Context(), level, "request", args...)
			return nil
		},
	}))
	if a.cfg.Metrics.Enabled {
		e.Use(a.metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}

	e.GET("/health", srv.GetHealth)
	api.RegisterHandlers(e.Group("/api/v1"), srv)
	logger.Info("REST API handlers mounted")

	mcpServer := mcp.NewServer(a.qa, a.store)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
	logger.Info("MCP protocol handlers mounted")

	e.GET("/openapi.yaml", api.SpecHandler)
	e.GET("/docs", api.SwaggerHandler)
	return e
}

func reconcile(ctx context.Context, envFile string) error {
	a, err := bootstrap(ctx, envFile)
	if err != nil {
		return err
	}
	defer a.pool.Close()

	n, err := a.qa.Reconcile(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Reconciliation complete", "updated", n)
	return nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	logger.Debug("Initializing database connection")

	poolConfig, err := pgxpool.ParseConfig(cfg.DB.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
