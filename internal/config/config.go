// Package config loads the service configuration from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// devSecret signs tokens when APP_DEV is on and no secret was provided.
const devSecret = "dev-only-secret-change-me"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Storage  StorageConfig
	App      AppConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects postgres (production) or sqlite (local runs).
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite file
	Debug    bool
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (s StorageConfig) Enabled() bool { return s.Endpoint != "" }

type AppConfig struct {
	Dev         bool
	Migrations  bool
	PublicURL   string
	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For; IPs or CIDR ranges.
	TrustedProxies []string
	LeadRateRPS    float64
	LeadRateBurst  int
}

type LogConfig struct {
	Level  string
	Format string
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as expected by
// golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

var defaults = map[string]any{
	"port":                 "8080",
	"server_read_timeout":  15,
	"server_write_timeout": 15,
	"server_idle_timeout":  60,

	"db_driver":   "postgres",
	"db_host":     "localhost",
	"db_port":     5432,
	"db_user":     "crm",
	"db_password": "crm123",
	"db_name":     "crm",
	"db_sslmode":  "disable",
	"db_path":     "crm.db",
	"db_debug":    false,

	"auth_secret":    "",
	"auth_token_ttl": "24h",

	"redis_addr":     "",
	"redis_password": "",
	"redis_db":       0,

	"minio_endpoint":   "",
	"minio_access_key": "",
	"minio_secret_key": "",
	"minio_bucket":     "crm",
	"minio_use_ssl":    false,

	"app_dev":             true,
	"app_migrations":      false,
	"app_public_url":      "http://localhost:5173",
	"app_cors_origins":    "http://localhost:5173",
	"app_trusted_proxies": "",
	"app_lead_rate_rps":   0.2,
	"app_lead_rate_burst": 5,

	"log_level":  "info",
	"log_format": "",
}

// Load reads .env (when present), the environment and, if CONFIG_FILE is set,
// that file. Environment values win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("port"),
			ReadTimeout:  v.GetInt("server_read_timeout"),
			WriteTimeout: v.GetInt("server_write_timeout"),
			IdleTimeout:  v.GetInt("server_idle_timeout"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("db_driver")),
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
			Path:     v.GetString("db_path"),
			Debug:    v.GetBool("db_debug"),
		},
		Auth: AuthConfig{
			Secret:   v.GetString("auth_secret"),
			TokenTTL: v.GetDuration("auth_token_ttl"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
		App: AppConfig{
			Dev:            v.GetBool("app_dev"),
			Migrations:     v.GetBool("app_migrations"),
			PublicURL:      strings.TrimRight(v.GetString("app_public_url"), "/"),
			CORSOrigins:    splitList(v.GetString("app_cors_origins")),
			TrustedProxies: splitList(v.GetString("app_trusted_proxies")),
			LeadRateRPS:    v.GetFloat64("app_lead_rate_rps"),
			LeadRateBurst:  v.GetInt("app_lead_rate_burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}
	if cfg.Auth.Secret == "" && cfg.App.Dev {
		cfg.Auth.Secret = devSecret
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
		if cfg.App.Dev {
			cfg.Log.Format = "text"
		}
	}
	return cfg
}

// Validate reports every setting the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is empty"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is required outside dev mode"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL must be positive"))
	}
	for _, p := range c.App.TrustedProxies {
		if !validProxy(p) {
			errs = append(errs, fmt.Errorf("APP_TRUSTED_PROXIES entry %q is not an IP or CIDR", p))
		}
	}
	return errors.Join(errs...)
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
