package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a default; the service runs with an empty environment.
type Config struct {
	// Server
	HTTPPort        string        `env:"PORT"             envDefault:"3000"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Logging
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`

	// Database. Empty DatabaseURL keeps reminders in memory.
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	// Notification facility
	NotifierBackend  string        `env:"NOTIFIER_BACKEND"   envDefault:"auto"`
	NotifierCommand  string        `env:"NOTIFIER_COMMAND"`
	NotifySound      bool          `env:"NOTIFY_SOUND"       envDefault:"true"`
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT"     envDefault:"15s"`
	NotifyReplyLabel string        `env:"NOTIFY_REPLY_LABEL" envDefault:"Completed?"`
	NotifyGrace      time.Duration `env:"NOTIFY_GRACE"       envDefault:"5s"`

	// Rate limiting: maximum popups per second, 0 disables the limit
	NotifyRateLimit int `env:"NOTIFY_RATE_LIMIT" envDefault:"5"`

	// Reminder delivery
	ReminderWorkers    int `env:"REMINDER_WORKERS"     envDefault:"2"`
	ReminderQueueSize  int `env:"REMINDER_QUEUE_SIZE"  envDefault:"256"`
	ReminderMaxRetries int `env:"REMINDER_MAX_RETRIES" envDefault:"3"`

	// Retry backoff durations: index 0 = first retry delay, etc.
	RetryBackoff []time.Duration `env:"RETRY_BACKOFF" envDefault:"5s,30s,120s" envSeparator:","`

	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"1s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.HTTPPort)
	}
	switch c.NotifierBackend {
	case "auto", "terminal-notifier", "notify-send", "log":
	default:
		return fmt.Errorf("NOTIFIER_BACKEND must be auto, terminal-notifier, notify-send or log, got %q", c.NotifierBackend)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if c.NotifyGrace < 0 {
		return fmt.Errorf("NOTIFY_GRACE must not be negative")
	}
	if c.WriteTimeout > 0 && c.WriteTimeout <= c.NotifyTimeout+c.NotifyGrace {
		return fmt.Errorf("WRITE_TIMEOUT (%s) must exceed NOTIFY_TIMEOUT + NOTIFY_GRACE (%s)",
			c.WriteTimeout, c.NotifyTimeout+c.NotifyGrace)
	}
	if c.NotifyRateLimit < 0 {
		return fmt.Errorf("NOTIFY_RATE_LIMIT must not be negative")
	}
	if c.ReminderWorkers < 1 {
		return fmt.Errorf("REMINDER_WORKERS must be at least 1")
	}
	if c.ReminderQueueSize < 1 {
		return fmt.Errorf("REMINDER_QUEUE_SIZE must be at least 1")
	}
	if c.ReminderMaxRetries < 0 {
		return fmt.Errorf("REMINDER_MAX_RETRIES must not be negative")
	}
	if len(c.RetryBackoff) == 0 {
		return fmt.Errorf("RETRY_BACKOFF needs at least one duration")
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	return nil
}
