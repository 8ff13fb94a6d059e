// Package config loads service configuration.
//
// Precedence (low -> high): defaults, YAML file, SCORECARD_ environment variables.
// Nested keys use a double underscore in env names, e.g. SCORECARD_REDIS__ADDR.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCORECARD_"

type Config struct {
	LogLevel string `koanf:"log_level"`
	Server   struct {
		Port           string   `koanf:"port"`
		// AllowedOrigins empty means any origin.
		AllowedOrigins []string `koanf:"allowed_origins"`
	} `koanf:"server"`
	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
		TTL      string `koanf:"ttl"`
	} `koanf:"redis"`
	Postgres struct {
		URL string `koanf:"url"`
	} `koanf:"postgres"`
	SQLite struct {
		Path string `koanf:"path"`
	} `koanf:"sqlite"`
	Catalog struct {
		ID   string `koanf:"id"`
		File string `koanf:"file"`
		TTL  string `koanf:"ttl"`
	} `koanf:"catalog"`
	Quiz struct {
		AdvanceDelay   string `koanf:"advance_delay"`
		ProgressExpiry string `koanf:"progress_expiry"`
		StorageKey     string `koanf:"storage_key"`
	} `koanf:"quiz"`
	Webhook struct {
		LeadURL         string `koanf:"lead_url"`
		ConsultationURL string `koanf:"consultation_url"`
		GuideURL        string `koanf:"guide_url"`
		Timeout         string `koanf:"timeout"`
	} `koanf:"webhook"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	cfg := Config{LogLevel: "info"}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "48h"
	cfg.Catalog.ID = "ai-ops-scorecard"
	cfg.Catalog.TTL = "10m"
	cfg.Quiz.AdvanceDelay = "300ms"
	cfg.Quiz.ProgressExpiry = "24h"
	cfg.Quiz.StorageKey = "ai-ops-scorecard-progress"
	cfg.Webhook.Timeout = "10s"
	return cfg
}

// Load reads YAML config from path (skipped when empty) and applies env overrides.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, err
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	if c.Catalog.ID == "" {
		return errors.New("catalog.id must not be empty")
	}
	if c.Redis.Addr != "" && c.SQLite.Path != "" {
		return errors.New("configure either redis or sqlite for progress, not both")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
