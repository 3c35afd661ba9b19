package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rxguard/rxguard/internal/audit"
	"github.com/rxguard/rxguard/internal/config"
	"github.com/rxguard/rxguard/internal/interaction"
	"github.com/rxguard/rxguard/internal/platform/db"
	"github.com/rxguard/rxguard/internal/platform/middleware"
	"github.com/rxguard/rxguard/internal/safety"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rxguard-server",
		Short: "Clinical safety validation and drug interaction API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the safety validation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for migrations")
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// checkCmd runs an interaction check from the command line, useful for
// smoke-testing a deployment without issuing HTTP requests.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [drug...]",
		Short: "Check a list of drugs for interactions",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

			checker := buildChecker(cfg, logger, nil)
			meds := make([]interaction.Medication, len(args))
			for i, name := range args {
				meds[i] = interaction.Medication{Name: name}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			result := checker.Check(ctx, meds)

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// buildChecker assembles the interaction sources from configuration. An
// unset base URL leaves that source out of the chain; the curated knowledge
// table is always present.
func buildChecker(cfg *config.Config, logger zerolog.Logger, cache interaction.ResolveCache) *interaction.Checker {
	knowledge := interaction.NewKnowledgeSource()

	var graph interaction.Source
	if cfg.GraphBaseURL != "" {
		opts := []interaction.GraphOption{
			interaction.WithGraphHTTPClient(&http.Client{Timeout: cfg.SourceTimeout}),
			interaction.WithGraphConcurrency(cfg.SourceConcurrency),
		}
		if cache != nil {
			opts = append(opts, interaction.WithResolveCache(cache))
		}
		graph = interaction.NewGraphSource(cfg.GraphBaseURL, logger, opts...)
	}

	var adverse interaction.Source
	if cfg.AdverseBaseURL != "" {
		adverse = interaction.NewAdverseEventSource(cfg.AdverseBaseURL, logger,
			interaction.WithAdverseHTTPClient(&http.Client{Timeout: cfg.SourceTimeout}),
			interaction.WithConcurrency(cfg.SourceConcurrency),
		)
	}

	return interaction.NewChecker(knowledge, graph, adverse, logger)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Audit store is optional. Without DATABASE_URL every audit write lands
	// in the structured log instead.
	var pool *pgxpool.Pool
	var auditRepo audit.Repository
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		auditRepo = audit.NewRepoPG(pool)
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, audit trail degrades to local log")
	}

	// Drug-name resolution cache, also optional.
	var resolveCache interaction.ResolveCache
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		defer rdb.Close()
		resolveCache = interaction.NewRedisResolveCache(rdb, 0, logger)
		logger.Info().Msg("connected to redis")
	}

	checker := buildChecker(cfg, logger, resolveCache)

	var engine *safety.Engine
	if cfg.RulesFile != "" {
		engine, err = safety.NewEngineFromFile(cfg.RulesFile)
		if err != nil {
			return fmt.Errorf("load rules file: %w", err)
		}
		logger.Info().Str("path", cfg.RulesFile).Msg("loaded rules extension file")
	} else {
		engine = safety.NewEngine()
	}

	auditSvc := audit.NewService(auditRepo, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	api := e.Group("/api/v1")
	interaction.NewHandler(checker).RegisterRoutes(api)
	safety.NewHandler(engine, checker, auditSvc).RegisterRoutes(api)
	audit.NewHandler(auditSvc).RegisterRoutes(api)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	if pool != nil {
		e.GET("/healthz/db", db.HealthHandler(pool))
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
