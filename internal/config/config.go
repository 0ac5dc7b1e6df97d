package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Stripe     StripeConfig     `yaml:"stripe"`
	Google     GoogleConfig     `yaml:"google"`
	Admin      AdminConfig      `yaml:"admin"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	Currency      string `yaml:"currency"`
	SuccessPath   string `yaml:"success_path"`
	CancelPath    string `yaml:"cancel_path"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
	Timezone        string `yaml:"timezone"`
}

type AdminConfig struct {
	Password       string `yaml:"password"`
	SessionTTLDays int    `yaml:"session_ttl_days"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	FromName string `yaml:"from_name"`
	// BusinessEmail receives contact-form and new-booking notifications.
	BusinessEmail string `yaml:"business_email"`
}

type TelegramConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BotToken      string `yaml:"bot_token"`
	ManagerChatID int64  `yaml:"manager_chat_id"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional outside local development.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Environment variables are expanded before parsing so secrets stay out
	// of the YAML file.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Stripe.SecretKey == "" {
		return errors.New("stripe secret key is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return errors.New("stripe webhook secret is required")
	}
	if c.Admin.Password == "" {
		return errors.New("admin password is required")
	}
	if c.Server.BaseURL == "" {
		return errors.New("server base_url is required")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "brightnest"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Stripe.Currency == "" {
		c.Stripe.Currency = "usd"
	}
	if c.Stripe.SuccessPath == "" {
		c.Stripe.SuccessPath = "/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if c.Stripe.CancelPath == "" {
		c.Stripe.CancelPath = "/booking"
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = "primary"
	}
	if c.Google.Timezone == "" {
		c.Google.Timezone = "America/New_York"
	}
	if c.Admin.SessionTTLDays == 0 {
		c.Admin.SessionTTLDays = 30
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}
