package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"quizboard/internal/config"
	"quizboard/internal/httpapi"
	"quizboard/internal/logging"
	"quizboard/internal/metrics"
	"quizboard/internal/questionbank"
	"quizboard/internal/quiz"
	"quizboard/internal/quiz/sqlite"
	"quizboard/internal/storage"
)

func main() {
	app := &cli.App{
		Name:  "quiz-service",
		Usage: "serve the quiz HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"QUIZ_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address (overrides config)",
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr := c.String("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
		gatherer = registry
	}

	db, err := storage.Open(ctx, storage.Options{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
		AutoMigrate:  cfg.Database.AutoMigrate,
		Logger:       logger,
		Metrics:      m,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	bank, err := questionbank.LoadOrDefault(cfg.Questions.Path)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	logger.Info("question bank loaded", "sets", bank.Len(), "path", cfg.Questions.Path)

	stores := sqlite.New(db, bank, logger)
	service := quiz.NewService(stores.Users, stores.Quizzes, stores.Scores, logger)

	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(service, db, httpapi.Options{
			Logger:         logger,
			Metrics:        m,
			Gatherer:       gatherer,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			RateLimit:      cfg.HTTP.RateLimit,
			RateBurst:      cfg.HTTP.RateBurst,
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("quiz-service listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
