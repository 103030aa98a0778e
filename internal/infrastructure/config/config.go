package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the composition root.
const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Queue        QueueConfig        `yaml:"queue"`
	Conversation ConversationConfig `yaml:"conversation"`
	Locale       LocaleConfig       `yaml:"locale"`
	WhatsApp     WhatsAppConfig     `yaml:"whatsapp"`
	Auth         AuthConfig         `yaml:"auth"`
	OptIn        OptInConfig        `yaml:"optin"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the relational store. Driver "memory" keeps every
// repository in process, which is only meant for local runs.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type QueueConfig struct {
	Concurrency int            `yaml:"concurrency"`
	Queues      map[string]int `yaml:"queues"`
}

// ConversationConfig controls how long a dialogue survives between messages
// and where each channel keeps it.
type ConversationConfig struct {
	WhatsAppTTL        time.Duration `yaml:"whatsapp_ttl"`
	TelegramTTL        time.Duration `yaml:"telegram_ttl"`
	WhatsAppStateStore string        `yaml:"whatsapp_state_store"`
	DedupeWindow       time.Duration `yaml:"dedupe_window"`
	SweepSchedule      string        `yaml:"sweep_schedule"`
}

type LocaleConfig struct {
	Timezone string `yaml:"timezone"`
	Currency string `yaml:"currency"`
	Language string `yaml:"language"`
}

type WhatsAppConfig struct {
	VerifyToken string `yaml:"verify_token"`
	AppSecret   string `yaml:"app_secret"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type OptInConfig struct {
	ExpireAfter        time.Duration `yaml:"expire_after"`
	RequestTemplate    string        `yaml:"request_template"`
	InvitationTemplate string        `yaml:"invitation_template"`
}

// LifecycleConfig drives the status tick. Schedule is a cron spec evaluated
// by the worker in the default timezone.
type LifecycleConfig struct {
	DueSoonDays int    `yaml:"due_soon_days"`
	Schedule    string `yaml:"schedule"`
}

// Load reads the optional .env file, the YAML file at path (when it exists),
// applies defaults and then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 3 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 4
	}
	if c.Queue.Concurrency == 0 {
		c.Queue.Concurrency = 10
	}
	if len(c.Queue.Queues) == 0 {
		c.Queue.Queues = map[string]int{"outbound": 6, "default": 3, "maintenance": 1}
	}
	if c.Conversation.WhatsAppTTL == 0 {
		c.Conversation.WhatsAppTTL = 30 * time.Minute
	}
	if c.Conversation.TelegramTTL == 0 {
		c.Conversation.TelegramTTL = 60 * time.Minute
	}
	if c.Conversation.WhatsAppStateStore == "" {
		c.Conversation.WhatsAppStateStore = DriverPostgres
	}
	if c.Conversation.DedupeWindow == 0 {
		c.Conversation.DedupeWindow = 24 * time.Hour
	}
	if c.Locale.Timezone == "" {
		c.Locale.Timezone = "America/Santiago"
	}
	if c.Locale.Currency == "" {
		c.Locale.Currency = "CLP"
	}
	if c.Locale.Language == "" {
		c.Locale.Language = "es"
	}
	if c.OptIn.ExpireAfter == 0 {
		c.OptIn.ExpireAfter = 72 * time.Hour
	}
	if c.OptIn.RequestTemplate == "" {
		c.OptIn.RequestTemplate = "opt_in_request"
	}
	if c.OptIn.InvitationTemplate == "" {
		c.OptIn.InvitationTemplate = "loan_invitation"
	}
	if c.Lifecycle.DueSoonDays == 0 {
		c.Lifecycle.DueSoonDays = 1
	}
	if c.Lifecycle.Schedule == "" {
		c.Lifecycle.Schedule = "@hourly"
	}
	if c.Conversation.SweepSchedule == "" {
		c.Conversation.SweepSchedule = "@every 15m"
	}
}

// applyEnv keeps the variable names operators already use for the stack.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.Server.Port = i
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("DB_URL")); v != "" {
		c.Database.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		c.Redis.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("ASYNQ_CONCURRENCY")); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			c.Queue.Concurrency = i
		}
	}
	if v := strings.TrimSpace(os.Getenv("ASYNQ_QUEUES")); v != "" {
		if parsed := ParseQueueWeights(v); len(parsed) > 0 {
			c.Queue.Queues = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("WHATSAPP_VERIFY_TOKEN")); v != "" {
		c.WhatsApp.VerifyToken = v
	}
	if v := strings.TrimSpace(os.Getenv("WHATSAPP_APP_SECRET")); v != "" {
		c.WhatsApp.AppSecret = v
	}
}

// Validate reports configuration that would fail at first use.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url (DB_URL) is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	switch c.Conversation.WhatsAppStateStore {
	case DriverPostgres, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("config: unknown whatsapp state store %q", c.Conversation.WhatsAppStateStore)
	}
	if c.Conversation.WhatsAppStateStore == DriverRedis && c.Redis.URL == "" {
		return errors.New("config: redis.url (REDIS_URL) is required for the redis state store")
	}
	if _, err := time.LoadLocation(c.Locale.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Locale.Timezone, err)
	}
	return nil
}

// Location returns the configured default civil calendar.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Locale.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseQueueWeights parses strings like "outbound=6,default=3,low=1".
func ParseQueueWeights(s string) map[string]int {
	res := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		name := strings.TrimSpace(kv[0])
		if name == "" {
			continue
		}
		w := 1
		if len(kv) == 2 {
			if i, err := strconv.Atoi(strings.TrimSpace(kv[1])); err == nil && i > 0 {
				w = i
			}
		}
		res[name] = w
	}
	return res
}
