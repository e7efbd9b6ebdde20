package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Upstreams  UpstreamsConfig  `mapstructure:"upstreams"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Log        LogConfig        `mapstructure:"log"`
	Otel       OtelConfig       `mapstructure:"otel"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type UpstreamsConfig struct {
	ProductServiceURL   string        `mapstructure:"product_service_url"`
	InventoryServiceURL string        `mapstructure:"inventory_service_url"`
	UserServiceURL      string        `mapstructure:"user_service_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
}

type AuthConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	AccessTokenSecret string        `mapstructure:"access_token_secret"`
	InternalSecret    string        `mapstructure:"internal_secret"`
	InternalTokenTTL  time.Duration `mapstructure:"internal_token_ttl"`
}

type PaginationConfig struct {
	MaxLimit int `mapstructure:"max_limit"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RPS         float64       `mapstructure:"rps"`
	Burst       int           `mapstructure:"burst"`
	StrikeLimit int           `mapstructure:"strike_limit"`
	BanTTL      time.Duration `mapstructure:"ban_ttl"`
	IdleTTL     time.Duration `mapstructure:"idle_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Mode      string `mapstructure:"mode"`
	Redaction bool   `mapstructure:"redaction"`
}

type OtelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	Version     string  `mapstructure:"version"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// envAliases maps config keys to the plain variable names the deployment already uses.
var envAliases = map[string]string{
	"server.addr":                     "GATEWAY_ADDR",
	"upstreams.product_service_url":   "PRODUCT_SERVICE_URL",
	"upstreams.inventory_service_url": "INVENTORY_SERVICE_URL",
	"upstreams.user_service_url":      "USER_SERVICE_URL",
	"auth.access_token_secret":        "ACCESS_TOKEN_SECRET",
	"auth.internal_secret":            "INTERNAL_SECRET",
	"redis.addr":                      "REDIS_ADDR",
	"redis.password":                  "REDIS_PASSWORD",
	"otel.endpoint":                   "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upstreams.product_service_url", "")
	v.SetDefault("upstreams.inventory_service_url", "")
	v.SetDefault("upstreams.user_service_url", "")
	v.SetDefault("upstreams.timeout", 5*time.Second)
	v.SetDefault("upstreams.max_retries", 2)
	v.SetDefault("upstreams.retry_backoff", 200*time.Millisecond)

	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.access_token_secret", "")
	v.SetDefault("auth.internal_secret", "")
	v.SetDefault("auth.internal_token_ttl", 5*time.Minute)

	v.SetDefault("pagination.max_limit", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.strike_limit", 5)
	v.SetDefault("rate_limit.ban_ttl", 15*time.Minute)
	v.SetDefault("rate_limit.idle_ttl", 5*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.redaction", true)

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "catalog-gateway")
	v.SetDefault("otel.environment", "local")
	v.SetDefault("otel.version", "dev")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", false)
	v.SetDefault("otel.sample_ratio", 0.1)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

// Load reads .env (if present), an optional CONFIG_FILE and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	for name, raw := range map[string]string{
		"PRODUCT_SERVICE_URL":   c.Upstreams.ProductServiceURL,
		"INVENTORY_SERVICE_URL": c.Upstreams.InventoryServiceURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Upstreams.UserServiceURL != "" {
		if err := validateBaseURL(c.Upstreams.UserServiceURL); err != nil {
			errs = append(errs, fmt.Errorf("USER_SERVICE_URL: %w", err))
		}
	}
	if c.Upstreams.Timeout <= 0 {
		errs = append(errs, errors.New("upstreams.timeout must be positive"))
	}
	if c.Upstreams.MaxRetries < 0 {
		errs = append(errs, errors.New("upstreams.max_retries cannot be negative"))
	}
	if c.Pagination.MaxLimit < 1 {
		errs = append(errs, errors.New("pagination.max_limit must be at least 1"))
	}
	if c.Auth.Enabled {
		if c.Auth.AccessTokenSecret == "" {
			errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required when auth is enabled"))
		}
		if c.Auth.InternalSecret == "" {
			errs = append(errs, errors.New("INTERNAL_SECRET is required when auth is enabled"))
		}
		if c.Auth.InternalTokenTTL <= 0 {
			errs = append(errs, errors.New("auth.internal_token_ttl must be positive"))
		}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}
	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
