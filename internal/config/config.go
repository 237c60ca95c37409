package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Workers  int     `yaml:"workers"` // concurrent update workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // json|console
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"` // directory holding the JSON registries
}

type RedisConfig struct {
	URL      string `yaml:"url"` // empty disables Redis; state falls back to memory
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AccessConfig struct {
	RetainRedeemedCodes bool          `yaml:"retain_redeemed_codes"` // keep redeemed codes through expiry purges
	PurgeInterval       time.Duration `yaml:"purge_interval"`
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"` // login key; empty disables the admin API
	JWTSecret string `yaml:"jwt_secret"`
}

type Config struct {
	Bot     BotConfig     `yaml:"bot"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Redis   RedisConfig   `yaml:"redis"`
	Access  AccessConfig  `yaml:"access"`
	Web     WebConfig     `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Config{
		// Audit default: expired-but-redeemed codes survive purges.
		Access: AccessConfig{RetainRedeemedCodes: true},
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Access.PurgeInterval <= 0 {
		cfg.Access.PurgeInterval = time.Hour
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8081
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		return nil, errors.New("bot.admin_ids is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
