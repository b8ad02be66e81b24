// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // scheduler.timezone must resolve on minimal images

	"gopkg.in/yaml.v3"

	"github.com/jeonjuho23/claude-daily/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	ChatID   int64   `yaml:"chat_id"` // channel of record for notifications
	Username string  `yaml:"username"`
	Command  string  `yaml:"command"` // control command name, without the slash
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port         int           `yaml:"port"`
	APIKey       string        `yaml:"api_key"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"` // apply migrations on serve
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // trigger lock ttl
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout         time.Duration `yaml:"timeout"`
}

type NotionConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Version          string `yaml:"version"`
	DatabaseID       string `yaml:"database_id"`
	ReportDatabaseID string `yaml:"report_database_id"`
}

type ContentConfig struct {
	Language          string `yaml:"language"` // ko|en
	Author            string `yaml:"author"`
	DefaultCategory   string `yaml:"default_category"`
	PreferredCategory string `yaml:"preferred_category"`
}

type SchedulerConfig struct {
	DefaultTime string `yaml:"default_time"`
	Timezone    string `yaml:"timezone"`
	Workers     int    `yaml:"workers"`
	QueueSize   int    `yaml:"queue_size"`
}

type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries"`
	BaseInterval time.Duration `yaml:"base_interval"`
}

type ReportConfig struct {
	WeeklyDay   int    `yaml:"weekly_day"` // 0 = Monday
	WeeklyTime  string `yaml:"weekly_time"`
	MonthlyDay  int    `yaml:"monthly_day"`
	MonthlyTime string `yaml:"monthly_time"`
}

type RateLimitConfig struct {
	TelegramPerMinute int     `yaml:"telegram_per_minute"`
	NotionPerSecond   float64 `yaml:"notion_per_second"`
	CommandsPerMinute int     `yaml:"commands_per_minute"`
}

// RequestsConfig drives the sweep that re-queues topic requests left unprocessed.
type RequestsConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	PendingGrace  time.Duration `yaml:"pending_grace"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Notion    NotionConfig    `yaml:"notion"`
	Content   ContentConfig   `yaml:"content"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Retry     RetryConfig     `yaml:"retry"`
	Report    ReportConfig    `yaml:"report"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Requests  RequestsConfig  `yaml:"requests"`

	Runtime RuntimeConfig `yaml:"-"`

	location *time.Location
}

// Load reads path, applies env overrides and defaults, and validates the result.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse is Load without the file read.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envOverrides = []struct {
	key string
	dst func(c *Config) *string
}{
	{"TELEGRAM_BOT_TOKEN", func(c *Config) *string { return &c.Bot.Token }},
	{"DATABASE_URL", func(c *Config) *string { return &c.Database.URL }},
	{"OPENAI_API_KEY", func(c *Config) *string { return &c.AI.OpenAIKey }},
	{"GEMINI_API_KEY", func(c *Config) *string { return &c.AI.GeminiKey }},
	{"NOTION_API_KEY", func(c *Config) *string { return &c.Notion.APIKey }},
	{"REDIS_URL", func(c *Config) *string { return &c.Redis.URL }},
	{"ADMIN_API_KEY", func(c *Config) *string { return &c.Admin.APIKey }},
	{"ADMIN_JWT_SECRET", func(c *Config) *string { return &c.Admin.JWTSecret }},
}

func (c *Config) applyEnv() {
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.dst(c) = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 4
	}
	if c.Bot.Command == "" {
		c.Bot.Command = "daily"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8080
	}
	if c.Admin.TokenTTL <= 0 {
		c.Admin.TokenTTL = 12 * time.Hour
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 5
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 4
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-4o-mini"
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 2 * time.Minute
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = "https://api.notion.com/v1"
	}
	if c.Notion.Version == "" {
		c.Notion.Version = "2022-06-28"
	}

	if c.Content.Language == "" {
		c.Content.Language = "ko"
	}
	if c.Content.Author == "" {
		c.Content.Author = "User"
	}
	if c.Content.DefaultCategory == "" {
		c.Content.DefaultCategory = "architecture"
	}

	if c.Scheduler.DefaultTime == "" {
		c.Scheduler.DefaultTime = "07:00"
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "Asia/Seoul"
	}
	if c.Scheduler.Workers <= 0 {
		c.Scheduler.Workers = 2
	}
	if c.Scheduler.QueueSize <= 0 {
		c.Scheduler.QueueSize = 16
	}

	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = 5
	}
	if c.Retry.BaseInterval <= 0 {
		c.Retry.BaseInterval = 5 * time.Minute
	}

	if c.Report.WeeklyTime == "" {
		c.Report.WeeklyTime = "10:00"
	}
	if c.Report.MonthlyDay == 0 {
		c.Report.MonthlyDay = 1
	}
	if c.Report.MonthlyTime == "" {
		c.Report.MonthlyTime = "10:00"
	}

	if c.RateLimit.TelegramPerMinute <= 0 {
		c.RateLimit.TelegramPerMinute = 50
	}
	if c.RateLimit.NotionPerSecond <= 0 {
		c.RateLimit.NotionPerSecond = 2.5
	}
	if c.RateLimit.CommandsPerMinute <= 0 {
		c.RateLimit.CommandsPerMinute = 20
	}

	if c.Requests.SweepInterval <= 0 {
		c.Requests.SweepInterval = 10 * time.Minute
	}
	if c.Requests.PendingGrace <= 0 {
		c.Requests.PendingGrace = 30 * time.Minute
	}
}

// Validate checks required fields and value ranges. It also resolves the timezone.
func (c *Config) Validate() error {
	var errs []error

	if c.Bot.Token == "" {
		errs = append(errs, errors.New("bot.token is required"))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Content.Language != "ko" && c.Content.Language != "en" {
		errs = append(errs, fmt.Errorf("content.language must be ko or en, got %q", c.Content.Language))
	}
	if !model.Category(c.Content.DefaultCategory).Valid() {
		errs = append(errs, fmt.Errorf("content.default_category %q is not a known category", c.Content.DefaultCategory))
	}
	if p := c.Content.PreferredCategory; p != "" {
		if !model.Category(p).Valid() {
			errs = append(errs, fmt.Errorf("content.preferred_category %q is not a known category", p))
		}
	}
	for name, v := range map[string]string{
		"scheduler.default_time": c.Scheduler.DefaultTime,
		"report.weekly_time":     c.Report.WeeklyTime,
		"report.monthly_time":    c.Report.MonthlyTime,
	} {
		if _, err := model.ValidateTimeOfDay(v); err != nil {
			errs = append(errs, fmt.Errorf("%s must be HH:MM, got %q", name, v))
		}
	}
	if c.Report.WeeklyDay < 0 || c.Report.WeeklyDay > 6 {
		errs = append(errs, fmt.Errorf("report.weekly_day must be 0-6, got %d", c.Report.WeeklyDay))
	}
	if c.Report.MonthlyDay < 1 || c.Report.MonthlyDay > 28 {
		errs = append(errs, fmt.Errorf("report.monthly_day must be 1-28, got %d", c.Report.MonthlyDay))
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	} else {
		c.location = loc
	}

	return errors.Join(errs...)
}

// Location is the resolved scheduler timezone. It falls back to UTC before Validate succeeds.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 2 * time.Minute
	}
	return d
}
