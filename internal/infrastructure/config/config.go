package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	VAT       VATConfig
	Whitelist WhitelistConfig
	Portal    PortalConfig
	Export    ExportConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// VATConfig holds VAT registry integration settings
type VATConfig struct {
	RegistryURL       string
	RequestTimeout    time.Duration
	CacheTTL          time.Duration
	FallbackWindow    time.Duration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	BatchChunkSize    int
	BatchChunkPause   time.Duration
}

// WhitelistConfig holds taxpayer whitelist integration settings
type WhitelistConfig struct {
	RegistryURL      string
	RequestTimeout   time.Duration
	CacheTTL         time.Duration
	BatchConcurrency int
}

// PortalConfig holds client portal integration settings
type PortalConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// ExportConfig holds timeline export formatter settings
type ExportConfig struct {
	FormatterURL   string
	RequestTimeout time.Duration
	HandleTTL      time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with CRM_ prefix (e.g., CRM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		VAT: VATConfig{
			RegistryURL:       v.GetString("vat.registry_url"),
			RequestTimeout:    v.GetDuration("vat.request_timeout"),
			CacheTTL:          v.GetDuration("vat.cache_ttl"),
			FallbackWindow:    v.GetDuration("vat.fallback_window"),
			RateLimitRequests: v.GetInt("vat.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("vat.rate_limit_window"),
			BatchChunkSize:    v.GetInt("vat.batch_chunk_size"),
			BatchChunkPause:   v.GetDuration("vat.batch_chunk_pause"),
		},
		Whitelist: WhitelistConfig{
			RegistryURL:      v.GetString("whitelist.registry_url"),
			RequestTimeout:   v.GetDuration("whitelist.request_timeout"),
			CacheTTL:         v.GetDuration("whitelist.cache_ttl"),
			BatchConcurrency: v.GetInt("whitelist.batch_concurrency"),
		},
		Portal: PortalConfig{
			BaseURL:        v.GetString("portal.base_url"),
			APIKey:         v.GetString("portal.api_key"),
			RequestTimeout: v.GetDuration("portal.request_timeout"),
		},
		Export: ExportConfig{
			FormatterURL:   v.GetString("export.formatter_url"),
			RequestTimeout: v.GetDuration("export.request_timeout"),
			HandleTTL:      v.GetDuration("export.handle_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crm-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "crm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-Tenant-ID"}
	}
	if cfg.VAT.RegistryURL == "" {
		cfg.VAT.RegistryURL = "https://ec.europa.eu/taxation_customs/vies/rest-api"
	}
	if cfg.VAT.RequestTimeout == 0 {
		cfg.VAT.RequestTimeout = 10 * time.Second
	}
	if cfg.VAT.CacheTTL == 0 {
		cfg.VAT.CacheTTL = 24 * time.Hour
	}
	if cfg.VAT.FallbackWindow == 0 {
		cfg.VAT.FallbackWindow = 24 * time.Hour
	}
	if cfg.VAT.RateLimitRequests == 0 {
		cfg.VAT.RateLimitRequests = 10
	}
	if cfg.VAT.RateLimitWindow == 0 {
		cfg.VAT.RateLimitWindow = time.Minute
	}
	if cfg.VAT.BatchChunkSize == 0 {
		cfg.VAT.BatchChunkSize = 10
	}
	if cfg.VAT.BatchChunkPause == 0 {
		cfg.VAT.BatchChunkPause = 60 * time.Second
	}
	if cfg.Whitelist.RegistryURL == "" {
		cfg.Whitelist.RegistryURL = "https://wl-api.mf.gov.pl"
	}
	if cfg.Whitelist.RequestTimeout == 0 {
		cfg.Whitelist.RequestTimeout = 10 * time.Second
	}
	if cfg.Whitelist.CacheTTL == 0 {
		cfg.Whitelist.CacheTTL = time.Hour
	}
	if cfg.Whitelist.BatchConcurrency == 0 {
		cfg.Whitelist.BatchConcurrency = 5
	}
	if cfg.Portal.RequestTimeout == 0 {
		cfg.Portal.RequestTimeout = 10 * time.Second
	}
	if cfg.Export.RequestTimeout == 0 {
		cfg.Export.RequestTimeout = 30 * time.Second
	}
	if cfg.Export.HandleTTL == 0 {
		cfg.Export.HandleTTL = time.Hour
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.VAT.BatchChunkSize > c.VAT.RateLimitRequests {
		return fmt.Errorf("vat.batch_chunk_size (%d) cannot exceed vat.rate_limit_requests (%d)",
			c.VAT.BatchChunkSize, c.VAT.RateLimitRequests)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Portal.BaseURL != "" && c.Portal.APIKey == "" {
			return fmt.Errorf("portal.api_key is required when portal.base_url is set in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
