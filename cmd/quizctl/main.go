package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	quizcli "quizboard/internal/cli"
	"quizboard/internal/client"
	"quizboard/internal/config"
	"quizboard/internal/logging"
	"quizboard/internal/opentdb"
	"quizboard/internal/questionbank"
	"quizboard/internal/quiz"
	"quizboard/internal/quiz/sqlite"
	"quizboard/internal/storage"
)

// OpenTDB allows one request per IP every five seconds.
const opentdbInterval = 5 * time.Second

func main() {
	app := &cli.App{
		Name:  "quizctl",
		Usage: "manage the quiz database and play from a terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"QUIZ_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path (overrides config)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create the database schema",
				Action: migrate,
			},
			{
				Name:  "seed",
				Usage: "insert quizzes; existing ids are left alone",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "file",
						Usage: "YAML file listing quizzes (defaults to the built-in Event and Daily quizzes)",
					},
				},
				Action: seed,
			},
			{
				Name:      "finish",
				Usage:     "mark a quiz finished",
				ArgsUsage: "<quiz_id>",
				Action:    finish,
			},
			{
				Name:  "fetch-questions",
				Usage: "build a question bank file from OpenTriviaDB",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "sets", Value: 2, Usage: "number of question sets"},
					&cli.IntFlag{Name: "amount", Value: 5, Usage: "questions per set"},
					&cli.StringFlag{Name: "out", Value: "questions.yaml", Usage: "output file"},
					&cli.IntFlag{Name: "category", Usage: "OpenTriviaDB category id"},
					&cli.StringFlag{Name: "difficulty", Usage: "easy, medium or hard"},
				},
				Action: fetchQuestions,
			},
			{
				Name:      "play",
				Usage:     "play a quiz against a running quiz-service",
				ArgsUsage: "[quiz_id]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server",
						Value:   client.DefaultServer,
						Usage:   "quiz-service base URL",
						EnvVars: []string{"QUIZ_SERVER"},
					},
					&cli.StringFlag{
						Name:     "account",
						Usage:    "account name to play as",
						Required: true,
					},
				},
				Action: play,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := c.String("db"); path != "" {
		cfg.Database.Path = path
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openDB(c *cli.Context, autoMigrate bool) (*storage.DB, *slog.Logger, error) {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(c.Context, storage.Options{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
		AutoMigrate:  autoMigrate,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return db, logger, nil
}

func migrate(c *cli.Context) error {
	db, logger, err := openDB(c, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(c.Context); err != nil {
		return err
	}
	logger.Info("schema up to date")
	return nil
}

type seedFile struct {
	Quizzes []seedQuiz `yaml:"quizzes"`
}

type seedQuiz struct {
	ID         int64     `yaml:"id"`
	Name       *string   `yaml:"name"`
	Price      float64   `yaml:"price"`
	Due        time.Time `yaml:"due"`
	Kind       string    `yaml:"kind"`
	IsFinished bool      `yaml:"is_finished"`
}

func readSeedFile(path string) ([]quiz.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	items := make([]quiz.Quiz, 0, len(file.Quizzes))
	for _, entry := range file.Quizzes {
		if entry.Due.IsZero() {
			return nil, fmt.Errorf("seed file %s: quiz %d has no due time", path, entry.ID)
		}
		items = append(items, quiz.Quiz{
			ID:         entry.ID,
			Name:       entry.Name,
			Price:      entry.Price,
			Due:        entry.Due,
			Kind:       quiz.QuizKind(entry.Kind),
			IsFinished: entry.IsFinished,
		})
	}
	return items, nil
}

func seed(c *cli.Context) error {
	items := sqlite.DefaultQuizzes()
	if path := c.String("file"); path != "" {
		var err error
		if items, err = readSeedFile(path); err != nil {
			return err
		}
	}

	db, logger, err := openDB(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	added, err := sqlite.NewSeeder(db).Seed(c.Context, items)
	for _, item := range added {
		logger.Info("quiz added", "quiz_id", item.ID, "kind", item.Kind)
	}
	if err != nil {
		return err
	}
	logger.Info("seed complete", "added", len(added), "skipped", len(items)-len(added))
	return nil
}

func parseQuizArg(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("usage: %s %s", c.Command.FullName(), c.Command.ArgsUsage)
	}
	quizID, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || quizID <= 0 {
		return 0, errors.New("quiz_id must be a positive integer")
	}
	return quizID, nil
}

func finish(c *cli.Context) error {
	quizID, err := parseQuizArg(c)
	if err != nil {
		return err
	}

	db, logger, err := openDB(c, true)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewSeeder(db).Finish(c.Context, quizID); err != nil {
		return err
	}
	logger.Info("quiz finished", "quiz_id", quizID)
	return nil
}

func fetchQuestions(c *cli.Context) error {
	_, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Every(opentdbInterval), 1)
	trivia := opentdb.NewClient(nil, opentdb.Options{
		Category:   c.Int("category"),
		Difficulty: c.String("difficulty"),
	})
	bank, err := questionbank.FetchSets(c.Context, trivia, c.Int("sets"), c.Int("amount"), limiter)
	if err != nil {
		return err
	}

	out := c.String("out")
	if err := bank.WriteFile(out); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("question bank written", "path", out, "sets", bank.Len())
	return nil
}

func play(c *cli.Context) error {
	var quizID int64
	if c.NArg() > 0 {
		var err error
		if quizID, err = parseQuizArg(c); err != nil {
			return err
		}
	}

	player, err := quizcli.NewPlayer(
		client.New(c.String("server"), nil),
		os.Stdin,
		os.Stdout,
		quizcli.Config{Account: c.String("account")},
	)
	if err != nil {
		return err
	}
	return player.Run(c.Context, quizID)
}
