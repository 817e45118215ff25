package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool
	Autostart      bool

	TelegramToken   string
	TelegramBaseURL string
	Mention         string

	CoursesFile string

	TaskDelay      time.Duration
	MaxAttempts    int
	AttemptTimeout time.Duration

	PollTimeout    time.Duration
	PollIdleSleep  time.Duration
	PollErrorSleep time.Duration

	LogHistory int

	ExecutorMode     string
	AutomationURL    string
	AutomationAPIKey string
	MockDelay        time.Duration
	AdminEmails      []string
	AdminPassword    string

	DatabaseURL   string
	HistoryDBPath string
}

// AutomationConfig contains the runtime settings for the automation service.
type AutomationConfig struct {
	BindAddr        string
	ShutdownTimeout time.Duration

	APIKey string

	Driver    string
	MaxIdle   time.Duration
	MockDelay time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("RELAY_BIND_ADDR", ":5000"),
		MetricsNamespace: envOrDefault("RELAY_METRICS_NAMESPACE", "learnyst_relay"),
		AllowAnyOrigin:   false,
		Autostart:        true,
		TelegramToken:    stringsTrimSpace("TELEGRAM_BOT_TOKEN"),
		TelegramBaseURL:  envOrDefault("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		Mention:          envOrDefault("RELAY_MENTION", "@LearnystBot"),
		CoursesFile:      stringsTrimSpace("RELAY_COURSES_FILE"),
		// Admin console throttling: one task every three minutes keeps the
		// vendor dashboard from flagging the account.
		TaskDelay:        3 * time.Minute,
		MaxAttempts:      3,
		AttemptTimeout:   2 * time.Minute,
		PollTimeout:      30 * time.Second,
		PollIdleSleep:    time.Second,
		PollErrorSleep:   5 * time.Second,
		LogHistory:       100,
		ExecutorMode:     envOrDefault("RELAY_EXECUTOR_MODE", "auto"),
		AutomationURL:    envOrDefault("AUTOMATION_SERVICE_URL", "http://localhost:5500"),
		AutomationAPIKey: stringsTrimSpace("AUTOMATION_API_KEY"),
		MockDelay:        2 * time.Second,
		AdminEmails:      listFromEnv("LEARNYST_USERNAME"),
		AdminPassword:    stringsTrimSpace("LEARNYST_PASSWORD"),
		DatabaseURL:      stringsTrimSpace("DATABASE_URL"),
		HistoryDBPath:    stringsTrimSpace("RELAY_HISTORY_DB"),
		ShutdownTimeout:  15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("RELAY_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TaskDelay, err = durationFromEnv("RELAY_TASK_DELAY", cfg.TaskDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.AttemptTimeout, err = durationFromEnv("RELAY_ATTEMPT_TIMEOUT", cfg.AttemptTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PollTimeout, err = durationFromEnv("RELAY_POLL_TIMEOUT", cfg.PollTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PollIdleSleep, err = durationFromEnv("RELAY_POLL_IDLE_SLEEP", cfg.PollIdleSleep)
	if err != nil {
		return Config{}, err
	}
	cfg.PollErrorSleep, err = durationFromEnv("RELAY_POLL_ERROR_SLEEP", cfg.PollErrorSleep)
	if err != nil {
		return Config{}, err
	}
	cfg.MockDelay, err = durationFromEnv("RELAY_MOCK_DELAY", cfg.MockDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxAttempts, err = intFromEnv("RELAY_MAX_ATTEMPTS", cfg.MaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.LogHistory, err = intFromEnv("RELAY_LOG_HISTORY", cfg.LogHistory)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("RELAY_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.Autostart, err = boolFromEnv("RELAY_AUTOSTART", cfg.Autostart)
	if err != nil {
		return Config{}, err
	}

	if cfg.Mention == "" {
		return Config{}, fmt.Errorf("RELAY_MENTION must not be empty")
	}
	if cfg.TaskDelay < 0 {
		return Config{}, fmt.Errorf("RELAY_TASK_DELAY must be >= 0")
	}
	if cfg.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("RELAY_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.AttemptTimeout <= 0 {
		return Config{}, fmt.Errorf("RELAY_ATTEMPT_TIMEOUT must be positive")
	}
	if cfg.PollTimeout < time.Second {
		return Config{}, fmt.Errorf("RELAY_POLL_TIMEOUT must be at least 1s")
	}
	if cfg.LogHistory < 1 {
		return Config{}, fmt.Errorf("RELAY_LOG_HISTORY must be positive")
	}
	if cfg.MockDelay < 0 {
		return Config{}, fmt.Errorf("RELAY_MOCK_DELAY must be >= 0")
	}
	switch cfg.ExecutorMode {
	case "auto", "service", "mock":
	default:
		return Config{}, fmt.Errorf("RELAY_EXECUTOR_MODE must be auto, service, or mock")
	}

	return cfg, nil
}

// LoadAutomation reads environment variables for the automation service.
func LoadAutomation() (AutomationConfig, error) {
	cfg := AutomationConfig{
		BindAddr:        envOrDefault("AUTOMATION_BIND_ADDR", ":5500"),
		APIKey:          stringsTrimSpace("API_KEY"),
		Driver:          envOrDefault("AUTOMATION_DRIVER", "mock"),
		MaxIdle:         30 * time.Minute,
		MockDelay:       2 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("AUTOMATION_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return AutomationConfig{}, err
	}
	cfg.MaxIdle, err = durationFromEnv("AUTOMATION_MAX_IDLE", cfg.MaxIdle)
	if err != nil {
		return AutomationConfig{}, err
	}
	cfg.MockDelay, err = durationFromEnv("AUTOMATION_MOCK_DELAY", cfg.MockDelay)
	if err != nil {
		return AutomationConfig{}, err
	}

	if cfg.APIKey == "" {
		return AutomationConfig{}, fmt.Errorf("API_KEY is not set")
	}
	if cfg.MaxIdle < time.Minute {
		return AutomationConfig{}, fmt.Errorf("AUTOMATION_MAX_IDLE must be at least 1m")
	}
	if cfg.MockDelay < 0 {
		return AutomationConfig{}, fmt.Errorf("AUTOMATION_MOCK_DELAY must be >= 0")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return trimSpace(os.Getenv(key))
}

func trimSpace(v string) string {
	for len(v) > 0 && (v[0] == ' ' || v[0] == '\n' || v[0] == '\t' || v[0] == '\r') {
		v = v[1:]
	}
	for len(v) > 0 {
		c := v[len(v)-1]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			v = v[:len(v)-1]
			continue
		}
		break
	}
	return v
}

func listFromEnv(key string) []string {
	raw := stringsTrimSpace(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = trimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
