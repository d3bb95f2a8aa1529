package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	AttachmentsLocal = "local"
	AttachmentsGCS   = "gcs"
)

type Config struct {
	App struct {
		Name     string `envconfig:"APP_NAME" default:"Moneyo"`
		Port     int    `envconfig:"PORT" default:"8080"`
		Timezone string `envconfig:"APP_TIMEZONE" default:"Local"`
	}

	DB struct {
		Host            string        `envconfig:"DB_HOST" default:"localhost"`
		Port            int           `envconfig:"DB_PORT" default:"5432"`
		User            string        `envconfig:"DB_USER" default:"postgres"`
		Password        string        `envconfig:"DB_PASSWORD" default:""`
		Name            string        `envconfig:"DB_NAME" default:"moneyo"`
		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
		AutoMigrate     bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	}

	Store struct {
		Driver string `envconfig:"STORE_DRIVER" default:"postgres"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Scheduler struct {
		Enabled    bool `envconfig:"SCHEDULER_ENABLED" default:"true"`
		MaxCatchUp int  `envconfig:"SCHEDULER_MAX_CATCH_UP" default:"50"`
	}

	Log struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info"`
		SinkLevel  string `envconfig:"LOG_SINK_LEVEL" default:"info"`
		SinkBuffer int    `envconfig:"LOG_SINK_BUFFER" default:"256"`
	}

	Attachments struct {
		Backend         string `envconfig:"ATTACHMENTS_BACKEND" default:"local"`
		Dir             string `envconfig:"ATTACHMENTS_DIR" default:"./uploads"`
		Bucket          string `envconfig:"ATTACHMENTS_BUCKET"`
		CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	}

	AMQP struct {
		URL      string `envconfig:"AMQP_URL"`
		Exchange string `envconfig:"AMQP_EXCHANGE" default:"moneyo"`
		Queue    string `envconfig:"AMQP_QUEUE" default:"recurrence.executed"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Location resolves App.Timezone; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.App.Timezone, err)
	}

	return loc, nil
}

func (c *Config) LogLevel() slog.Level {
	return parseLevel(c.Log.Level)
}

// SinkLevel is the lowest level copied into the persistent log table.
func (c *Config) SinkLevel() slog.Level {
	return parseLevel(c.Log.SinkLevel)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Attachments.Backend {
	case AttachmentsLocal:
		if c.Attachments.Dir == "" {
			return fmt.Errorf("ATTACHMENTS_DIR is required for the local backend")
		}
	case AttachmentsGCS:
		if c.Attachments.Bucket == "" {
			return fmt.Errorf("ATTACHMENTS_BUCKET is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown ATTACHMENTS_BACKEND %q", c.Attachments.Backend)
	}

	if c.Scheduler.MaxCatchUp <= 0 {
		return fmt.Errorf("SCHEDULER_MAX_CATCH_UP must be positive")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
