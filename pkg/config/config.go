package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Session SessionConfig
	Planner PlannerConfig
	Redis   RedisConfig
	Journal JournalConfig
	Metrics MetricsConfig
	Stub    StubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Journal.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PLANNER_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"PLANNER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PLANNER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"PLANNER_LOG_FORMAT"`
	TimeZone     string `envconfig:"PLANNER_TIMEZONE" default:"Local"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured time zone; week starts are computed in it.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.TimeZone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

// APIConfig points at the EcoEats REST backend. A zero timeout means requests
// are bounded only by the caller's context.
type APIConfig struct {
	BaseURL string        `envconfig:"PLANNER_API_BASE_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"PLANNER_API_TIMEOUT" default:"0s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvAPITimeout)
	}
	return nil
}

type SessionConfig struct {
	UserID      string `envconfig:"PLANNER_USER_ID" default:"me"`
	AuthToken   string `envconfig:"PLANNER_AUTH_TOKEN"`
	DisplayName string `envconfig:"PLANNER_USER_NAME"`
}

type PlannerConfig struct {
	SuggestThreshold int `envconfig:"PLANNER_SUGGEST_THRESHOLD" default:"20"`
}

// RedisConfig is optional; with neither URL nor address set the snapshot
// cache is disabled.
type RedisConfig struct {
	URL          string        `envconfig:"PLANNER_REDIS_URL"`
	Address      string        `envconfig:"PLANNER_REDIS_ADDR"`
	Password     string        `envconfig:"PLANNER_REDIS_PASSWORD"`
	DB           int           `envconfig:"PLANNER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PLANNER_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"PLANNER_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"PLANNER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PLANNER_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PLANNER_REDIS_WRITE_TIMEOUT" default:"3s"`
	CacheTTL     time.Duration `envconfig:"PLANNER_CACHE_TTL" default:"24h"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JournalConfig selects where failed plan writes are kept until replayed.
type JournalConfig struct {
	Driver string `envconfig:"PLANNER_JOURNAL_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"PLANNER_JOURNAL_DSN" default:"file:planner-journal.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"PLANNER_JOURNAL_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"PLANNER_JOURNAL_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"PLANNER_JOURNAL_CONN_MAX_LIFETIME" default:"1h"`
}

func (j JournalConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(j.Driver)) {
	case JournalDriverSQLite, JournalDriverPostgres:
	case JournalDriverNone:
		return nil
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvJournalDriver, JournalDriverSQLite, JournalDriverPostgres, JournalDriverNone)
	}
	if strings.TrimSpace(j.DSN) == "" {
		return fmt.Errorf("%s is required when the journal is enabled", EnvJournalDSN)
	}
	return nil
}

// Enabled reports whether failed writes should be journaled at all.
func (j JournalConfig) Enabled() bool {
	return !strings.EqualFold(strings.TrimSpace(j.Driver), JournalDriverNone)
}

type MetricsConfig struct {
	Addr string `envconfig:"PLANNER_METRICS_ADDR"`
}

type StubConfig struct {
	Port string `envconfig:"PLANNER_STUB_PORT" default:"8000"`
	Seed bool   `envconfig:"PLANNER_STUB_SEED" default:"true"`
}
