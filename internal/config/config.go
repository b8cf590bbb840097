// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/koikoi/engine"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the full process configuration. Match rules default to the
// standard twelve-month game.
type Config struct {
	Addr      string `env:"KOIKOI_ADDR" envDefault:":8080"`
	LogLevel  string `env:"KOIKOI_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"KOIKOI_LOG_FORMAT" envDefault:"text"`

	JWTSecret  string        `env:"KOIKOI_JWT_SECRET"`
	SessionTTL time.Duration `env:"KOIKOI_SESSION_TTL" envDefault:"24h"`

	DatabaseURL string `env:"KOIKOI_DATABASE_URL"`
	SQLitePath  string `env:"KOIKOI_SQLITE_PATH" envDefault:"koikoi.db"`
	RedisAddr   string `env:"KOIKOI_REDIS_ADDR"`

	Origins []string `env:"KOIKOI_ORIGINS" envSeparator:","`
	CPU     string   `env:"KOIKOI_CPU" envDefault:"first"`

	Rounds          int    `env:"KOIKOI_ROUNDS" envDefault:"12"`
	DrawPoints      int    `env:"KOIKOI_DRAW_POINTS" envDefault:"6"`
	DoubleThreshold int    `env:"KOIKOI_DOUBLE_THRESHOLD" envDefault:"7"`
	CaptureAllFour  bool   `env:"KOIKOI_CAPTURE_ALL_FOUR" envDefault:"true"`
	Seed            uint64 `env:"KOIKOI_SEED" envDefault:"0"`
}

// Load reads the given .env files (".env" when none are named), then parses
// the environment. Missing .env files are not an error; variables already
// set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Rules(); err != nil {
		return Config{}, err
	}
	if _, err := cfg.CPUPolicy(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Rules builds validated engine rules from the configuration.
func (c Config) Rules() (engine.Rules, error) {
	r := engine.DefaultRules()
	r.Rounds = c.Rounds
	r.DrawPoints = c.DrawPoints
	r.DoubleThreshold = c.DoubleThreshold
	r.CaptureAllFour = c.CaptureAllFour
	if err := r.Validate(); err != nil {
		return engine.Rules{}, fmt.Errorf("invalid rules: %w", err)
	}
	return r, nil
}

// CPUPolicy maps the CPU setting to an engine policy.
func (c Config) CPUPolicy() (engine.Policy, error) {
	switch strings.ToLower(c.CPU) {
	case "first", "":
		return engine.FirstMatchPolicy{}, nil
	case "greedy":
		return engine.GreedyPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown cpu policy %q", c.CPU)
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	switch strings.ToLower(c.LogFormat) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return log, nil
}
