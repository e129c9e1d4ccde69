package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Port         string        `mapstructure:"port"`
	LogLevel     string        `mapstructure:"log_level"`
	DatabaseURL  string        `mapstructure:"database_url"`
	RateProvider string        `mapstructure:"rate_provider"`
	Quote        QuoteConfig   `mapstructure:"quote"`
	Redis        RedisConfig   `mapstructure:"redis"`
	Events       EventsConfig  `mapstructure:"events"`
	Leads        LeadsConfig   `mapstructure:"leads"`
	Shutdown     time.Duration `mapstructure:"shutdown_timeout"`
}

type QuoteConfig struct {
	LatencyMin time.Duration `mapstructure:"latency_min"`
	LatencyMax time.Duration `mapstructure:"latency_max"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type EventsConfig struct {
	SigningSecret string  `mapstructure:"signing_secret"`
	RatePerSec    float64 `mapstructure:"rate_per_sec"`
	Burst         int     `mapstructure:"burst"`
}

type LeadsConfig struct {
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	Burst      int     `mapstructure:"burst"`
}

// flat environment names kept for deployments that predate the yaml file
var envAliases = map[string]string{
	"port":                  "PORT",
	"log_level":             "LOG_LEVEL",
	"database_url":          "DATABASE_URL",
	"rate_provider":         "RATE_PROVIDER",
	"quote.latency_min":     "QUOTE_LATENCY_MIN",
	"quote.latency_max":     "QUOTE_LATENCY_MAX",
	"redis.addr":            "REDIS_ADDR",
	"redis.password":        "REDIS_PASSWORD",
	"redis.db":              "REDIS_DB",
	"redis.channel":         "ANALYTICS_CHANNEL",
	"events.signing_secret": "EVENT_SIGNING_SECRET",
	"events.rate_per_sec":   "EVENT_RATE_PER_SEC",
	"events.burst":          "EVENT_BURST",
	"leads.rate_per_sec":    "LEAD_RATE_PER_SEC",
	"leads.burst":           "LEAD_BURST",
	"shutdown_timeout":      "SHUTDOWN_TIMEOUT",
}

// Load reads defaults, then the optional yaml file at path, then the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_provider", "simulated")
	v.SetDefault("quote.latency_min", "800ms")
	v.SetDefault("quote.latency_max", "1500ms")
	v.SetDefault("redis.channel", "freightquote:analytics")
	v.SetDefault("events.rate_per_sec", 50)
	v.SetDefault("events.burst", 100)
	v.SetDefault("leads.rate_per_sec", 2)
	v.SetDefault("leads.burst", 10)
	v.SetDefault("shutdown_timeout", "10s")

	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, errors.Wrapf(err, "bind %s", env)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config failed")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config failed")
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if c.Quote.LatencyMin < 0 || c.Quote.LatencyMax < c.Quote.LatencyMin {
		return errors.Errorf("invalid quote latency window %s-%s", c.Quote.LatencyMin, c.Quote.LatencyMax)
	}
	return nil
}
