package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quizboard/internal/logging"
)

// Config holds the quiz-service settings.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Questions QuestionsConfig `yaml:"questions"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Path         string        `yaml:"path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// QuestionsConfig points at a question bank file; empty uses the bundled one.
type QuestionsConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:              ":8000",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			AllowedOrigins:    []string{"*"},
			RateBurst:         20,
		},
		Database: DatabaseConfig{
			Path:         "quiz.db",
			MaxOpenConns: 1,
			BusyTimeout:  5 * time.Second,
			AutoMigrate:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Load reads filename on top of the defaults, then applies environment
// overrides. A missing file is not an error: the environment alone is used.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("QUESTIONS_PATH"); v != "" {
		cfg.Questions.Path = v
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED value: %w", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path must not be empty")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database max_open_conns must not be negative, got %d", c.Database.MaxOpenConns)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http rate_limit must not be negative, got %v", c.HTTP.RateLimit)
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateBurst <= 0 {
		return errors.New("http rate_burst must be positive when rate_limit is set")
	}
	return nil
}
