package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultPort                     = 9000
	defaultMetricsPort              = "2112"
	defaultAdviceModel              = "gemini-2.0-flash"
	defaultAdviceTimeout            = 30 * time.Second
	defaultLoginRateLimitPerMin     = 15
	defaultAdviceRateLimitPerMin    = 5
	defaultDashboardCacheSizeMB     = 16
	defaultDashboardCacheTTLSeconds = 300
	defaultKafkaTopic               = "fittrack.events"
	defaultTimezone                 = "UTC"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresUser   string `toml:"postgres_user"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	AllowedOrigins []string `toml:"allowed_origins"`

	// rate limits
	LoginRateLimitAllowedPerMin  int `toml:"login_rate_limit_allowed_per_min"`
	AdviceRateLimitAllowedPerMin int `toml:"advice_rate_limit_allowed_per_min"`

	// training advice
	AdviceModel    string   `toml:"advice_model"`
	AdviceEndpoint string   `toml:"advice_endpoint"`
	AdviceTimeout  Duration `toml:"advice_timeout"`

	// domain events, publishing is disabled when no brokers are set
	KafkaBrokers []string `toml:"kafka_brokers"`
	KafkaTopic   string   `toml:"kafka_topic"`

	DashboardCacheSizeMB     int `toml:"dashboard_cache_size_mb"`
	DashboardCacheTTLSeconds int `toml:"dashboard_cache_ttl_seconds"`

	// Timezone decides what "today" is for date validation and activity gaps.
	Timezone string `toml:"timezone"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not found", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path, picks the section for env and fills in defaults.
func Load(env, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(env, string(content))
}

func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.setDefaults()

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = defaultMetricsPort
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = defaultLoginRateLimitPerMin
	}
	if c.AdviceRateLimitAllowedPerMin == 0 {
		c.AdviceRateLimitAllowedPerMin = defaultAdviceRateLimitPerMin
	}
	if c.AdviceModel == "" {
		c.AdviceModel = defaultAdviceModel
	}
	if c.AdviceTimeout.Duration <= 0 {
		c.AdviceTimeout.Duration = defaultAdviceTimeout
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = defaultKafkaTopic
	}
	if c.DashboardCacheSizeMB == 0 {
		c.DashboardCacheSizeMB = defaultDashboardCacheSizeMB
	}
	if c.DashboardCacheTTLSeconds == 0 {
		c.DashboardCacheTTLSeconds = defaultDashboardCacheTTLSeconds
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}
