package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar désigne un fichier YAML optionnel.
const ConfigPathEnvVar = "XTC_CONFIG"

// DefaultConfigPath est lu s'il existe et que XTC_CONFIG n'est pas défini.
const DefaultConfigPath = "xtc.yaml"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type UpstreamConfig struct {
	Timeout            time.Duration `koanf:"timeout"`
	UserAgent          string        `koanf:"user_agent"`
	InsecureSkipVerify bool          `koanf:"insecure_skip_verify"`
	MaxPerHost         int           `koanf:"max_per_host"`
	BreakerTripAfter   int           `koanf:"breaker_trip_after"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`
}

type ScheduleConfig struct {
	Enabled           bool          `koanf:"enabled"`
	HomeInterval      time.Duration `koanf:"home_interval"`
	HomeWindow        time.Duration `koanf:"home_window"`
	ProgressRetention time.Duration `koanf:"progress_retention"`
	AccountsPerSecond float64       `koanf:"accounts_per_second"`
}

type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json | console
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "xtc.db"},
		Upstream: UpstreamConfig{
			Timeout:            30 * time.Second,
			UserAgent:          "xtream-companion",
			MaxPerHost:         4,
			BreakerTripAfter:   5,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled:           true,
			HomeInterval:      24 * time.Hour,
			HomeWindow:        30 * 24 * time.Hour,
			ProgressRetention: 7 * 24 * time.Hour,
			AccountsPerSecond: 2,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load empile: valeurs par défaut, puis fichier YAML (path, sinon XTC_CONFIG,
// sinon xtc.yaml s'il existe), puis variables XTC_*.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("XTC_", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := splitList(k, "security.cors_origins"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

var envMappings = map[string]string{
	"XTC_ADDR":                        "server.addr",
	"XTC_REQUEST_TIMEOUT":             "server.request_timeout",
	"XTC_SHUTDOWN_TIMEOUT":            "server.shutdown_timeout",
	"XTC_DB_PATH":                     "database.path",
	"XTC_UPSTREAM_TIMEOUT":            "upstream.timeout",
	"XTC_UPSTREAM_USER_AGENT":         "upstream.user_agent",
	"XTC_UPSTREAM_INSECURE":           "upstream.insecure_skip_verify",
	"XTC_UPSTREAM_MAX_PER_HOST":       "upstream.max_per_host",
	"XTC_UPSTREAM_BREAKER_TRIP_AFTER": "upstream.breaker_trip_after",
	"XTC_UPSTREAM_BREAKER_OPEN":       "upstream.breaker_open_timeout",
	"XTC_SCHEDULE_ENABLED":            "schedule.enabled",
	"XTC_HOME_INTERVAL":               "schedule.home_interval",
	"XTC_HOME_WINDOW":                 "schedule.home_window",
	"XTC_PROGRESS_RETENTION":          "schedule.progress_retention",
	"XTC_ACCOUNTS_PER_SECOND":         "schedule.accounts_per_second",
	"XTC_CORS_ORIGINS":                "security.cors_origins",
	"XTC_RATE_LIMIT_REQUESTS":         "security.rate_limit_requests",
	"XTC_RATE_LIMIT_WINDOW":           "security.rate_limit_window",
	"XTC_LOG_LEVEL":                   "logging.level",
	"XTC_LOG_FORMAT":                  "logging.format",
}

// envTransform ignore les variables XTC_* inconnues (XTC_CONFIG compris).
func envTransform(key string) string {
	return envMappings[key]
}

func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	positive := map[string]time.Duration{
		"server.request_timeout":        c.Server.RequestTimeout,
		"server.shutdown_timeout":       c.Server.ShutdownTimeout,
		"upstream.timeout":              c.Upstream.Timeout,
		"upstream.breaker_open_timeout": c.Upstream.BreakerOpenTimeout,
		"schedule.home_interval":        c.Schedule.HomeInterval,
		"schedule.home_window":          c.Schedule.HomeWindow,
		"schedule.progress_retention":   c.Schedule.ProgressRetention,
		"security.rate_limit_window":    c.Security.RateLimitWindow,
	}
	for name, d := range positive {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", name))
		}
	}
	if c.Upstream.MaxPerHost <= 0 {
		errs = append(errs, errors.New("upstream.max_per_host must be > 0"))
	}
	if c.Upstream.BreakerTripAfter <= 0 {
		errs = append(errs, errors.New("upstream.breaker_trip_after must be > 0"))
	}
	if c.Schedule.AccountsPerSecond < 0 {
		errs = append(errs, errors.New("schedule.accounts_per_second must be >= 0"))
	}
	if c.Security.RateLimitRequests <= 0 {
		errs = append(errs, errors.New("security.rate_limit_requests must be > 0"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
