package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	PairCount                int
	TurnSeconds              int
	CollectSeconds           int
	FlipBackDelayMs          int
	ExtraTurnOnMatch         bool
	AuthorGuessBonus         bool
	MaxPlayers               int
	AdminToken               string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		PairCount:                8,
		TurnSeconds:              20,
		CollectSeconds:           120,
		FlipBackDelayMs:          1500,
		ExtraTurnOnMatch:         true,
		AuthorGuessBonus:         false,
		MaxPlayers:               8,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PAIR_COUNT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.PairCount = value
		}
	}
	if raw := os.Getenv("TURN_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TurnSeconds = value
		}
	}
	if raw := os.Getenv("COLLECT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.CollectSeconds = value
		}
	}
	if raw := os.Getenv("FLIP_BACK_DELAY_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.FlipBackDelayMs = value
		}
	}
	if raw := os.Getenv("EXTRA_TURN_ON_MATCH"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.ExtraTurnOnMatch = value
		}
	}
	if raw := os.Getenv("AUTHOR_GUESS_BONUS"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.AuthorGuessBonus = value
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	return cfg
}
