// Package app assembles the relay from configuration. Both the binary and
// tests build the full stack through it.
package app

import (
	"context"
	"fmt"

	"github.com/techpathai/learnyst-relay/internal/automation"
	"github.com/techpathai/learnyst-relay/internal/bot"
	"github.com/techpathai/learnyst-relay/internal/catalog"
	"github.com/techpathai/learnyst-relay/internal/command"
	"github.com/techpathai/learnyst-relay/internal/config"
	"github.com/techpathai/learnyst-relay/internal/httpapi"
	"github.com/techpathai/learnyst-relay/internal/observability"
	"github.com/techpathai/learnyst-relay/internal/store"
	"github.com/techpathai/learnyst-relay/internal/telegram"
)

type BuildResult struct {
	Config      config.Config
	API         *httpapi.Server
	Bot         *bot.Bot
	History     store.Store
	HistoryMode string
	Metrics     *observability.Metrics
	Recorder    *observability.Recorder

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	recorder := observability.NewRecorder(cfg.LogHistory)

	courses := catalog.Default()
	if cfg.CoursesFile != "" {
		var err error
		courses, err = catalog.Load(cfg.CoursesFile)
		if err != nil {
			return nil, fmt.Errorf("course catalog load failed: %w", err)
		}
	}

	history, historyMode, err := store.New(ctx, cfg.DatabaseURL, cfg.HistoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("history store init failed: %w", err)
	}

	executor, err := automation.NewExecutor(automation.Config{
		Mode:       cfg.ExecutorMode,
		ServiceURL: cfg.AutomationURL,
		APIKey:     cfg.AutomationAPIKey,
		MockDelay:  cfg.MockDelay,
		Credentials: automation.Credentials{
			Emails:   cfg.AdminEmails,
			Password: cfg.AdminPassword,
		},
	})
	if err != nil {
		_ = history.Close()
		return nil, fmt.Errorf("automation executor init failed: %w", err)
	}

	client, err := telegram.NewClient(telegram.Config{
		Token:       cfg.TelegramToken,
		BaseURL:     cfg.TelegramBaseURL,
		PollTimeout: cfg.PollTimeout,
	})
	if err != nil {
		_ = history.Close()
		return nil, fmt.Errorf("telegram client init failed: %w", err)
	}

	b := bot.New(bot.Options{
		Client:         client,
		Parser:         command.NewParser(cfg.Mention, courses),
		Catalog:        courses,
		TaskDelay:      cfg.TaskDelay,
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.AttemptTimeout,
		Executor:       executor,
		History:        history,
		PollIdleSleep:  cfg.PollIdleSleep,
		PollErrorSleep: cfg.PollErrorSleep,
		Metrics:        metrics,
		Recorder:       recorder,
	})

	api := httpapi.New(cfg, b, history, historyMode, recorder)

	cleanup := func() error {
		return history.Close()
	}

	return &BuildResult{
		Config:      cfg,
		API:         api,
		Bot:         b,
		History:     history,
		HistoryMode: historyMode,
		Metrics:     metrics,
		Recorder:    recorder,
		Cleanup:     cleanup,
	}, nil
}
