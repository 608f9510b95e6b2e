package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database    Database    `envPrefix:"DATABASE_"`
	Paypal      Paypal      `envPrefix:"PAYPAL_"`
	SMTP        SMTP        `envPrefix:"SMTP_"`
	Admin       Admin       `envPrefix:"ADMIN_"`
	Fulfillment Fulfillment `envPrefix:"FULFILLMENT_"`
	Catalog     Catalog     `envPrefix:"CATALOG_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"mysql"` // mysql, postgres, sqlite
	URL    string `env:"URL"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
	Currency     string `env:"CURRENCY" envDefault:"USD"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
	FromName string `env:"FROM_NAME" envDefault:"LuxeCustomized"`
}

type Admin struct {
	Token string `env:"TOKEN"`
}

type Fulfillment struct {
	CredentialTTL time.Duration `env:"CREDENTIAL_TTL" envDefault:"168h"`
	PendingTTL    time.Duration `env:"PENDING_TTL" envDefault:"24h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
}

type Catalog struct {
	SeedFile string `env:"SEED_FILE"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL is required"))
	}
	if len(c.Admin.Token) < 16 {
		errs = append(errs, errors.New("ADMIN_TOKEN must be at least 16 characters"))
	}
	if c.Fulfillment.CredentialTTL <= 0 {
		errs = append(errs, errors.New("FULFILLMENT_CREDENTIAL_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Address() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}
