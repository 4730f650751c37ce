// Package config loads table settings from .env files, the environment and
// command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the table configuration.
type Config struct {
	StartingChips int    `env:"BLACKJACK_STARTING_CHIPS" envDefault:"100"`
	ResultLog     string `env:"BLACKJACK_RESULT_LOG" envDefault:"blackjack_results.txt"`
	// Seed fixes the shuffle; 0 draws a fresh seed at startup.
	Seed int64 `env:"BLACKJACK_SEED"`
	// ReshuffleAt replaces the deck before a round when fewer cards remain.
	// 0 never replaces it.
	ReshuffleAt int  `env:"BLACKJACK_RESHUFFLE_AT" envDefault:"15"`
	Auto        bool `env:"BLACKJACK_AUTO"`
	AutoBet     int  `env:"BLACKJACK_AUTO_BET" envDefault:"10"`
	MaxRounds   int  `env:"BLACKJACK_MAX_ROUNDS"`
	Hints       bool `env:"BLACKJACK_HINTS"`
	JudgeTrials int  `env:"BLACKJACK_JUDGE_TRIALS" envDefault:"2000"`
	// LLMModel seats a chat model instead of the console; it bets AutoBet.
	LLMModel string `env:"BLACKJACK_LLM_MODEL"`
	// OTelEndpoint is an OTLP/HTTP URL for round spans; empty disables tracing.
	OTelEndpoint    string  `env:"BLACKJACK_OTEL_ENDPOINT"`
	OTelSampleRatio float64 `env:"BLACKJACK_OTEL_SAMPLE_RATIO" envDefault:"1"`
	Debug           bool    `env:"DEBUG"`
}

// Load reads .env files when present. Missing files are not an error.
func Load(files ...string) {
	_ = godotenv.Load(files...)
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Parse reads environment defaults and applies flag overrides.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.StartingChips, "chips", cfg.StartingChips, "Starting chip balance")
	fs.StringVar(&cfg.ResultLog, "log", cfg.ResultLog, "File the round results are appended to")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Shuffle seed (0 = random)")
	fs.IntVar(&cfg.ReshuffleAt, "reshuffle-at", cfg.ReshuffleAt, "Replace the deck when fewer cards remain (0 = never)")
	fs.BoolVar(&cfg.Auto, "auto", cfg.Auto, "Let the bot play")
	fs.IntVar(&cfg.AutoBet, "auto-bet", cfg.AutoBet, "Flat bet used by the bot")
	fs.IntVar(&cfg.MaxRounds, "rounds", cfg.MaxRounds, "Stop after this many rounds (0 = until broke)")
	fs.BoolVar(&cfg.Hints, "hints", cfg.Hints, "Show the judge's recommendation before each decision")
	fs.IntVar(&cfg.JudgeTrials, "trials", cfg.JudgeTrials, "Simulations per judge estimate (0 = off)")
	fs.StringVar(&cfg.LLMModel, "llm", cfg.LLMModel, "Let this chat model play")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP URL for round traces (empty = off)")
	fs.Float64Var(&cfg.OTelSampleRatio, "otel-sample", cfg.OTelSampleRatio, "Share of sessions traced, 0 to 1")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// minReshuffleAt is the smallest threshold that still leaves a full initial
// deal in the deck.
const minReshuffleAt = 4

// Validate rejects settings the table cannot run with.
func (c Config) Validate() error {
	switch {
	case c.StartingChips <= 0:
		return fmt.Errorf("starting chips must be positive, got %d", c.StartingChips)
	case c.ResultLog == "":
		return errors.New("result log path is required")
	case c.ReshuffleAt < 0 || c.ReshuffleAt > 52:
		return fmt.Errorf("reshuffle-at must be between 0 and 52, got %d", c.ReshuffleAt)
	case c.ReshuffleAt > 0 && c.ReshuffleAt < minReshuffleAt:
		return fmt.Errorf("reshuffle-at must be 0 or at least %d to cover the deal, got %d", minReshuffleAt, c.ReshuffleAt)
	case c.Auto && c.LLMModel != "":
		return errors.New("choose either auto or llm play, not both")
	case (c.Auto || c.LLMModel != "") && c.AutoBet <= 0:
		return fmt.Errorf("auto bet must be positive, got %d", c.AutoBet)
	case c.MaxRounds < 0:
		return fmt.Errorf("rounds must not be negative, got %d", c.MaxRounds)
	case c.JudgeTrials < 0:
		return fmt.Errorf("trials must not be negative, got %d", c.JudgeTrials)
	case c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1:
		return fmt.Errorf("otel sample ratio must be between 0 and 1, got %g", c.OTelSampleRatio)
	}
	return nil
}
