package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to run
type Config struct {
	App     AppConfig
	Server  ServerConfig
	DB      DBConfig
	Tokens  TokenConfig
	Secrets SecretConfig
	SMTP    SMTPConfig
	Uploads UploadConfig
}

type AppConfig struct {
	Environment string
	BaseURL     string
	Debug       bool
}

type ServerConfig struct {
	Addr string
}

type DBConfig struct {
	DSN string
}

type TokenConfig struct {
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	ResetTTL        time.Duration
	VerificationTTL time.Duration
}

type SecretConfig struct {
	AccessKey  string
	RefreshKey string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type UploadConfig struct {
	Dir      string
	BasePath string
}

// LoadConfig reads the optional config file and the AUTH_ prefixed
// environment overrides
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("AUTH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.base_url", "http://localhost:3000")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.addr", ":3000")

	v.SetDefault("db.dsn", "file:auth.db?cache=shared&_pragma=foreign_keys(1)")

	v.SetDefault("tokens.issuer", "auth-service")
	v.SetDefault("tokens.access_ttl", "1h")
	v.SetDefault("tokens.refresh_ttl", "720h")
	v.SetDefault("tokens.reset_ttl", "5m")
	v.SetDefault("tokens.verification_ttl", "10m")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "no-reply@localhost")
	v.SetDefault("smtp.from_name", "Auth Service")

	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.base_path", "/uploads")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App.Environment = v.GetString("app.environment")
	cfg.App.BaseURL = v.GetString("app.base_url")
	cfg.App.Debug = v.GetBool("app.debug")

	cfg.Server.Addr = v.GetString("server.addr")

	cfg.DB.DSN = v.GetString("db.dsn")

	cfg.Tokens.Issuer = v.GetString("tokens.issuer")
	cfg.Tokens.AccessTTL = v.GetDuration("tokens.access_ttl")
	cfg.Tokens.RefreshTTL = v.GetDuration("tokens.refresh_ttl")
	cfg.Tokens.ResetTTL = v.GetDuration("tokens.reset_ttl")
	cfg.Tokens.VerificationTTL = v.GetDuration("tokens.verification_ttl")

	cfg.Secrets.AccessKey = v.GetString("secrets.access_key")
	cfg.Secrets.RefreshKey = v.GetString("secrets.refresh_key")

	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")
	cfg.SMTP.FromName = v.GetString("smtp.from_name")

	cfg.Uploads.Dir = v.GetString("uploads.dir")
	cfg.Uploads.BasePath = v.GetString("uploads.base_path")
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Tokens.AccessTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}

	if c.Tokens.RefreshTTL <= 0 {
		return fmt.Errorf("refresh token TTL must be positive")
	}

	return nil
}

// IsProduction reports whether we are running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
