package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL   string
	KeyPrefix     string
	MorningTime   string
	EveningTime   string
	WriteDebounce time.Duration
	MessagesFile  string
	LogLevel      string
}

const (
	defaultDatabaseURL   = "daily_planner.db"
	defaultKeyPrefix     = "@EasinDailyPlanner_"
	defaultMorningTime   = "08:00"
	defaultEveningTime   = "21:00"
	defaultWriteDebounce = 250 * time.Millisecond
)

// Load reads configuration from .env, an optional config.yaml and environment
// variables, in increasing order of precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", defaultDatabaseURL)
	v.SetDefault("KEY_PREFIX", defaultKeyPrefix)
	v.SetDefault("MORNING_TIME", defaultMorningTime)
	v.SetDefault("EVENING_TIME", defaultEveningTime)
	v.SetDefault("WRITE_DEBOUNCE", defaultWriteDebounce.String())
	v.SetDefault("MESSAGES_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DatabaseURL:  strings.TrimSpace(v.GetString("DATABASE_URL")),
		KeyPrefix:    v.GetString("KEY_PREFIX"),
		MorningTime:  strings.TrimSpace(v.GetString("MORNING_TIME")),
		EveningTime:  strings.TrimSpace(v.GetString("EVENING_TIME")),
		MessagesFile: strings.TrimSpace(v.GetString("MESSAGES_FILE")),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}

	debounce, err := time.ParseDuration(strings.TrimSpace(v.GetString("WRITE_DEBOUNCE")))
	if err != nil || debounce < 0 {
		return cfg, fmt.Errorf("WRITE_DEBOUNCE must be a non-negative duration, got %q", v.GetString("WRITE_DEBOUNCE"))
	}
	cfg.WriteDebounce = debounce

	if err := ValidateClock(cfg.MorningTime); err != nil {
		return cfg, fmt.Errorf("MORNING_TIME: %w", err)
	}
	if err := ValidateClock(cfg.EveningTime); err != nil {
		return cfg, fmt.Errorf("EVENING_TIME: %w", err)
	}

	return cfg, nil
}

// ValidateClock checks an HH:MM wall-clock time. An empty value disables the
// corresponding job and is accepted.
func ValidateClock(raw string) error {
	if raw == "" {
		return nil
	}
	_, _, err := ParseClock(raw)
	return err
}

// ParseClock splits an HH:MM string into hour and minute.
func ParseClock(raw string) (int, int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}
