// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"telegram-automation/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

// AccountConfig is one sending identity. With the Bot API adapter the token
// is the bot token; the id is what tasks refer to.
type AccountConfig struct {
	ID    string `yaml:"id"`
	Token string `yaml:"token"`
}

type BotConfig struct {
	Token       string          `yaml:"token"`        // shorthand for a single "default" account
	Driver      string          `yaml:"driver"`       // telegram | noop
	APIEndpoint string          `yaml:"api_endpoint"` // self-hosted Bot API server, empty for api.telegram.org
	Accounts    []AccountConfig `yaml:"accounts"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	APIKey     string        `yaml:"api_key"`   // exchanged for a session token on /api/v1/auth/login
	RateLimit  int           `yaml:"rate_limit"` // requests per minute per client, 0 disables
}

type DatabaseConfig struct {
	URL string `yaml:"url"` // empty selects the in-memory store
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables locks, send-log and caches
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	MaxFloodWaitRetries int           `yaml:"max_flood_wait_retries"`
	AutoBlacklist       bool          `yaml:"auto_blacklist"`
	SweepInterval       time.Duration `yaml:"sweep_interval"`
	TaskRetention       time.Duration `yaml:"task_retention"`
	LockTTL             time.Duration `yaml:"lock_ttl"`
	Seed                int64         `yaml:"seed"` // 0 seeds from the clock
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type Config struct {
	Bot       BotConfig             `yaml:"bot"`
	Log       LogConfig             `yaml:"log"`
	Admin     AdminConfig           `yaml:"admin"`
	Database  DatabaseConfig        `yaml:"database"`
	Redis     RedisConfig           `yaml:"redis"`
	RateLimit model.RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig       `yaml:"scheduler"`
	Tracing   TracingConfig         `yaml:"tracing"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev from the command line and loads the file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load reads the yaml file, applies defaults, a .env file if present and the
// environment overrides, then validates.
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()
	cfg.applyEnv()
	cfg.Runtime.Dev = dev
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes yaml and fills defaults without touching the environment.
func Parse(b []byte) (*Config, error) {
	cfg := Config{RateLimit: model.DefaultRateLimitConfig()}
	cfg.Scheduler.MaxFloodWaitRetries = -1
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Bot.Driver == "" {
		c.Bot.Driver = "telegram"
	}
	if c.Admin.Port <= 0 {
		c.Admin.Port = 8080
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 12 * time.Hour
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.Scheduler.MaxFloodWaitRetries < 0 {
		c.Scheduler.MaxFloodWaitRetries = 1
	}
	if c.Scheduler.SweepInterval <= 0 {
		c.Scheduler.SweepInterval = 5 * time.Minute
	}
	if c.Scheduler.TaskRetention <= 0 {
		c.Scheduler.TaskRetention = time.Hour
	}
	if c.Scheduler.LockTTL <= 0 {
		c.Scheduler.LockTTL = 30 * time.Second
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "telegram-automation"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TG_BOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		c.Admin.JWTSecret = v
	}
}

// AccountList returns configured accounts; a bare bot.token becomes the
// "default" account.
func (c *Config) AccountList() []AccountConfig {
	if len(c.Bot.Accounts) > 0 {
		return c.Bot.Accounts
	}
	if c.Bot.Token != "" || c.Bot.Driver == "noop" {
		return []AccountConfig{{ID: "default", Token: c.Bot.Token}}
	}
	return nil
}

func (c *Config) Validate() error {
	accounts := c.AccountList()
	if len(accounts) == 0 {
		return errors.New("bot.token or bot.accounts is required")
	}
	seen := map[string]struct{}{}
	for _, a := range accounts {
		if strings.TrimSpace(a.ID) == "" {
			return errors.New("bot.accounts: id is required")
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("bot.accounts: duplicate id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
		if c.Bot.Driver == "telegram" && a.Token == "" {
			return fmt.Errorf("bot.accounts: token is required for %q", a.ID)
		}
	}
	switch c.Bot.Driver {
	case "telegram", "noop":
	default:
		return fmt.Errorf("bot.driver: unknown driver %q", c.Bot.Driver)
	}
	if c.Admin.JWTSecret == "" && !c.Runtime.Dev {
		return errors.New("admin.jwt_secret is required")
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
