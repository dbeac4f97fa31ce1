package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds is the getUpdates timeout; 0 means default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// ChannelID is where /post and post_menu_on_start publish the menu.
	ChannelID       int64 `yaml:"channel_id" envconfig:"TELEGRAM_CHANNEL_ID"`
	PostMenuOnStart bool  `yaml:"post_menu_on_start" envconfig:"TELEGRAM_POST_MENU_ON_START"`
	// DropPendingUpdates is a pointer so an omitted key keeps the default.
	DropPendingUpdates *bool `yaml:"drop_pending_updates" envconfig:"TELEGRAM_DROP_PENDING_UPDATES"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging output.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile is "debug", "dev" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback button presses.
	UpdateCallback = "callback"
	// UpdateMessage identifies text messages and commands.
	UpdateMessage = "message"
	// UpdateInlineQuery identifies inline queries.
	UpdateInlineQuery = "inline_query"
)

const (
	// ScopeGlobal shares one auto-return slot across all conversations.
	ScopeGlobal = "global"
	// ScopeChat keeps one auto-return slot per menu message.
	ScopeChat = "chat"
)

const (
	defaultIntervalMS      = 2500
	defaultCapacity        = 1000
	defaultAutoReturnDelay = 20000
	// DefaultNotice is the cooldown reply shown to rejected users.
	DefaultNotice = "❗️Пожалуйста подождите несколько секунд и попробуйте снова"
)

// RateLimitConfig controls the per-user cooldown. Updates listed in
// ExcludeUpdates bypass it.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Capacity       int      `yaml:"capacity" envconfig:"RATE_LIMIT_CAPACITY"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
	Notice         string   `yaml:"notice" envconfig:"RATE_LIMIT_NOTICE"`
}

// AutoReturnConfig controls the inactivity timer that restores the main menu.
type AutoReturnConfig struct {
	DelayMS int    `yaml:"delay_ms" envconfig:"AUTO_RETURN_DELAY_MS"`
	Scope   string `yaml:"scope" envconfig:"AUTO_RETURN_SCOPE"`
}

// SenderConfig tunes the outbound dispatcher. Zero values select defaults.
type SenderConfig struct {
	QueueSize      int     `yaml:"queue_size"`
	Workers        int     `yaml:"workers"`
	MaxRetries     int     `yaml:"max_retries"`
	RetryBackoffMS int     `yaml:"retry_backoff_ms"`
	MaxDurationMS  int     `yaml:"max_duration_ms"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	Burst          int     `yaml:"burst"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram   TelegramConfig   `yaml:"telegram"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	AutoReturn AutoReturnConfig `yaml:"auto_return"`
	Sender     SenderConfig     `yaml:"sender"`
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// LoadInto reads YAML from path into dst and applies environment overrides.
// dst may embed Config inline next to application sections.
func LoadInto(path string, dst any) error {
	if err := LoadDotEnv(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Load reads the core configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	if cfg.Telegram.PostMenuOnStart && cfg.Telegram.ChannelID == 0 {
		return fmt.Errorf("telegram.channel_id is required when post_menu_on_start is set")
	}

	if err := normalizeRateLimit(&cfg.RateLimit); err != nil {
		return err
	}
	if err := normalizeAutoReturn(&cfg.AutoReturn); err != nil {
		return err
	}
	return normalizeSender(&cfg.Sender)
}

// DropPending reports whether updates queued while the bot was offline
// should be discarded on start. Defaults to true.
func (c TelegramConfig) DropPending() bool {
	return c.DropPendingUpdates == nil || *c.DropPendingUpdates
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	switch {
	case rl.IntervalMS < 0:
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	case rl.IntervalMS == 0:
		rl.IntervalMS = defaultIntervalMS
	}
	switch {
	case rl.Capacity < 0:
		return fmt.Errorf("rate_limit.capacity must be >= 0")
	case rl.Capacity == 0:
		rl.Capacity = defaultCapacity
	}
	if strings.TrimSpace(rl.Notice) == "" {
		rl.Notice = DefaultNotice
	}
	allowed := map[string]struct{}{
		UpdateCallback:    {},
		UpdateMessage:     {},
		UpdateInlineQuery: {},
	}
	out := rl.ExcludeUpdates[:0]
	for _, v := range rl.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, inline_query", v)
		}
		out = append(out, key)
	}
	rl.ExcludeUpdates = out
	return nil
}

func normalizeAutoReturn(ar *AutoReturnConfig) error {
	switch {
	case ar.DelayMS < 0:
		return fmt.Errorf("auto_return.delay_ms must be >= 0")
	case ar.DelayMS == 0:
		ar.DelayMS = defaultAutoReturnDelay
	}
	scope := strings.ToLower(strings.TrimSpace(ar.Scope))
	switch scope {
	case "":
		scope = ScopeGlobal
	case ScopeGlobal, ScopeChat:
	default:
		return fmt.Errorf("invalid auto_return.scope %q; allowed: global, chat", ar.Scope)
	}
	ar.Scope = scope
	return nil
}

func normalizeSender(s *SenderConfig) error {
	if s.QueueSize < 0 || s.Workers < 0 || s.MaxRetries < 0 {
		return fmt.Errorf("sender queue_size, workers and max_retries must be >= 0")
	}
	if s.RetryBackoffMS < 0 || s.MaxDurationMS < 0 {
		return fmt.Errorf("sender durations must be >= 0")
	}
	if s.RatePerSecond < 0 || s.Burst < 0 {
		return fmt.Errorf("sender rate_per_second and burst must be >= 0")
	}
	return nil
}
