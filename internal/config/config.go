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

// Env var holding an optional yaml config file path.
const PathEnvVar = "CONFIG_PATH"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Optimizer OptimizerConfig `koanf:"optimizer"`
	Logistics LogisticsConfig `koanf:"logistics"`
	Center    CenterConfig    `koanf:"center"`
	Surface   SurfaceConfig   `koanf:"surface"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port        string   `koanf:"port"`
	CORSOrigins []string `koanf:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
	// Login attempts allowed per IP per minute.
	LoginRatePerMinute int `koanf:"login_rate_per_minute"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
	// Also archive finalized routes in postgres.
	ArchiveRoutes bool `koanf:"archive_routes"`
}

type RedisConfig struct {
	Addr          string        `koanf:"addr"`
	Password      string        `koanf:"password"`
	DB            int           `koanf:"db"`
	DraftTTL      time.Duration `koanf:"draft_ttl"`
	NotifyChannel string        `koanf:"notify_channel"`
}

type OptimizerConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	// Sent as the Authorization header when set.
	APIKey string `koanf:"api_key"`
	// Consecutive failures before the breaker opens.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

type LogisticsConfig struct {
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
	NotifyTo string        `koanf:"notify_to"`
}

type CenterConfig struct {
	Name string  `koanf:"name"`
	Lat  float64 `koanf:"lat"`
	Lng  float64 `koanf:"lng"`
}

type SurfaceConfig struct {
	DragWatchdog time.Duration `koanf:"drag_watchdog"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080", CORSOrigins: []string{"*"}},
		Auth: AuthConfig{
			TokenTTL:           time.Hour,
			LoginRatePerMinute: 10,
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			DraftTTL:      7 * 24 * time.Hour,
			NotifyChannel: "route.finalized",
		},
		Optimizer: OptimizerConfig{
			BaseURL:         "http://localhost:5000",
			Timeout:         60 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Logistics: LogisticsConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 30 * time.Second,
		},
		Center: CenterConfig{
			Name: "Las Palmas",
			Lat:  14.452001745913762,
			Lng:  -90.64185192063206,
		},
		Surface: SurfaceConfig{DragWatchdog: 10 * time.Second},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional yaml file and
// environment variables, in that order of precedence (last wins).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config: defaults: %w", err)
	}

	if path := os.Getenv(PathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config: file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load config: env: %w", err)
	}

	if v, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(v)); err != nil {
			return nil, fmt.Errorf("load config: cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

var envKeys = map[string]string{
	"PORT":                  "server.port",
	"CORS_ORIGINS":          "server.cors_origins",
	"JWT_SECRET":            "auth.jwt_secret",
	"TOKEN_TTL":             "auth.token_ttl",
	"LOGIN_RATE_PER_MINUTE": "auth.login_rate_per_minute",
	"DATABASE_URL":          "database.url",
	"ARCHIVE_ROUTES":        "database.archive_routes",
	"REDIS_ADDR":            "redis.addr",
	"REDIS_PASSWORD":        "redis.password",
	"REDIS_DB":              "redis.db",
	"DRAFT_TTL":             "redis.draft_ttl",
	"NOTIFY_CHANNEL":        "redis.notify_channel",
	"OPTIMIZER_URL":         "optimizer.base_url",
	"OPTIMIZER_TIMEOUT":     "optimizer.timeout",
	"OPTIMIZER_API_KEY":     "optimizer.api_key",
	"BREAKER_FAILURES":      "optimizer.breaker_failures",
	"BREAKER_COOLDOWN":      "optimizer.breaker_cooldown",
	"LOGISTICS_URL":         "logistics.base_url",
	"LOGISTICS_TIMEOUT":     "logistics.timeout",
	"NOTIFY_TO":             "logistics.notify_to",
	"CENTER_NAME":           "center.name",
	"CENTER_LAT":            "center.lat",
	"CENTER_LNG":            "center.lng",
	"DRAG_WATCHDOG":         "surface.drag_watchdog",
	"LOG_LEVEL":             "logging.level",
	"LOG_FORMAT":            "logging.format",
}

// Unknown variables map to "" and are skipped by the provider.
func envKey(name string) string {
	return envKeys[name]
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if strings.TrimSpace(c.Optimizer.BaseURL) == "" {
		errs = append(errs, errors.New("OPTIMIZER_URL is required"))
	}
	if strings.TrimSpace(c.Logistics.BaseURL) == "" {
		errs = append(errs, errors.New("LOGISTICS_URL is required"))
	}
	if c.Surface.DragWatchdog <= 0 {
		errs = append(errs, errors.New("drag watchdog must be positive"))
	}
	return errors.Join(errs...)
}

// Get returns the environment variable or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
