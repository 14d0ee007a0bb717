package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "KEY_PREFIX", "MORNING_TIME", "EVENING_TIME", "WRITE_DEBOUNCE", "MESSAGES_FILE", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "daily_planner.db", cfg.DatabaseURL)
	assert.Equal(t, "08:00", cfg.MorningTime)
	assert.Equal(t, "21:00", cfg.EveningTime)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteDebounce)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "data/planner.db")
	t.Setenv("KEY_PREFIX", "@Test_")
	t.Setenv("MORNING_TIME", "07:30")
	t.Setenv("EVENING_TIME", "22:15")
	t.Setenv("WRITE_DEBOUNCE", "1s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/planner.db", cfg.DatabaseURL)
	assert.Equal(t, "@Test_", cfg.KeyPrefix)
	assert.Equal(t, "07:30", cfg.MorningTime)
	assert.Equal(t, "22:15", cfg.EveningTime)
	assert.Equal(t, time.Second, cfg.WriteDebounce)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("WRITE_DEBOUNCE", "1s")

	t.Setenv("MORNING_TIME", "25:00")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("MORNING_TIME", "08:00")
	t.Setenv("WRITE_DEBOUNCE", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	for _, raw := range []string{"9", "24:00", "12:60", "ab:cd"} {
		_, _, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
	assert.NoError(t, ValidateClock(""))
}
