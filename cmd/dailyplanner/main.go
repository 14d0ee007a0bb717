package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"easin-planner/internal/config"
	"easin-planner/internal/console"
	"easin-planner/internal/messages"
	"easin-planner/internal/repository"
	"easin-planner/internal/service"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer func() {
		if err := logger.Sync(); err != nil {
			zap.L().Debug("failed to sync logger", zap.Error(err))
		}
	}()

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer func() {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
	}
	store := repository.NewKVRepository(db)

	msgs := messages.Default()
	if cfg.MessagesFile != "" {
		msgs, err = messages.LoadFile(cfg.MessagesFile)
		if err != nil {
			logger.Fatal("failed to load messages", zap.String("path", cfg.MessagesFile), zap.Error(err))
		}
	}

	persister := service.NewPersister(store, logger, cfg.WriteDebounce)
	planner := service.NewPlanner(store, persister, msgs, logger, service.WithKeyPrefix(cfg.KeyPrefix))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := planner.Close(closeCtx); err != nil {
			logger.Error("pending writes lost on shutdown", zap.Error(err))
		}
	}()
	planner.Initialize(ctx)

	reminders := service.NewReminderService(planner, msgs)
	ui := console.New(planner, reminders, os.Stdin, os.Stdout, logger)

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.MorningTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.MorningTime, func() {
			ui.Notify("☀️ Morning kickoff", reminders.MorningPrompt())
		}); err != nil {
			logger.Fatal("failed to schedule morning prompt", zap.Error(err))
		}
	}
	if cfg.EveningTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.EveningTime, func() {
			ui.Notify("🌙 End of day", reminders.EveningPrompt())
		}); err != nil {
			logger.Fatal("failed to schedule evening prompt", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("daily planner started",
		zap.String("database", redactDSN(cfg.DatabaseURL)),
		zap.Int("scheduled_jobs", scheduler.Entries()),
	)
	if err := ui.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console stopped with error", zap.Error(err))
	}
	logger.Info("shutting down")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// redactDSN keeps credentials out of the logs.
func redactDSN(dsn string) string {
	if repository.IsPostgresDSN(dsn) {
		return "postgres"
	}
	return dsn
}
