// Package config loads service configuration.
//
// Values are layered: built-in defaults, then the YAML file named by
// --config or STOREFRONT_CONFIG (optional), then environment variables for
// addresses and secrets, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/storefront-order-service/internal/telemetry"
	"github.com/Cheertaboi/storefront-order-service/pkg/db"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `yaml:"environment"`
	// Brand seeds the settings document on first start.
	Brand string `yaml:"brand"`

	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Cart      CartConfig      `yaml:"cart"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	OrderLog  OrderLogConfig  `yaml:"order_log"`
	Assets    AssetsConfig    `yaml:"assets"`
	Admin     AdminConfig     `yaml:"admin"`
	Tracing   TracingConfig   `yaml:"tracing"`

	// SettingsCacheTTL is how long the settings document is served from
	// memory before it is re-read.
	SettingsCacheTTL time.Duration `yaml:"settings_cache_ttl"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool `yaml:"secure_cookies"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StoreConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string            `yaml:"driver"`
	Postgres db.PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	// Addr enables Redis-backed carts and rate limits when set.
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type CartConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type RateLimitConfig struct {
	Limit   int           `yaml:"limit"`
	Window  time.Duration `yaml:"window"`
	MaxKeys int           `yaml:"max_keys"`
}

type OrderLogConfig struct {
	// Path of the SQLite timeline database; empty disables the timeline.
	Path string `yaml:"path"`
}

type AssetsConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type AdminConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector; empty disables tracing.
	Endpoint string `yaml:"endpoint"`
}

func Default() *Config {
	return &Config{
		Environment: "development",
		Brand:       "Storefront",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:   LogConfig{Level: "info"},
		Store: StoreConfig{Driver: StorePostgres, Postgres: db.DefaultPostgresConfig()},
		Redis: RedisConfig{Prefix: "storefront"},
		Cart:  CartConfig{TTL: 7 * 24 * time.Hour},
		RateLimit: RateLimitConfig{
			Limit:   10,
			Window:  time.Minute,
			MaxKeys: 10000,
		},
		Assets:           AssetsConfig{Dir: "./uploads", MaxBytes: 5 << 20},
		Admin:            AdminConfig{User: "admin"},
		SettingsCacheTTL: 30 * time.Second,
	}
}

// Load builds the configuration for a process started with args (without
// the program name).
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to YAML config file")
	addr := flags.String("addr", "", "HTTP listen address")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	store := flags.String("store", "", "store driver (postgres or memory)")
	trustProxy := flags.Bool("trust-proxy", false, "trust X-Forwarded-For from a fronting proxy")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if flags.Changed("addr") {
		cfg.HTTP.Addr = *addr
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("store") {
		cfg.Store.Driver = *store
	}
	if flags.Changed("trust-proxy") {
		cfg.HTTP.TrustProxy = *trustProxy
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	pg, err := db.LoadPostgresConfig(c.Store.Postgres)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Store.Postgres = pg

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Admin.User = getEnv("ADMIN_USER", c.Admin.User)
	c.Admin.Password = getEnv("ADMIN_PASS", c.Admin.Password)
	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if _, err := telemetry.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Store.Driver {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store.Driver))
	}
	if c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit needs a positive limit and window"))
	}
	if c.Cart.TTL <= 0 {
		errs = append(errs, errors.New("cart.ttl must be positive"))
	}
	if strings.TrimSpace(c.Admin.User) == "" || c.Admin.Password == "" {
		errs = append(errs, errors.New("admin.user and admin.password (or ADMIN_USER/ADMIN_PASS) are required"))
	}
	if c.Assets.Dir == "" {
		errs = append(errs, errors.New("assets.dir is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
