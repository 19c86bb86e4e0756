package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/subkit/subkit/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Webhook    Webhook          `validate:"required"`
	Sentry     SentryConfig
	Renewal    RenewalConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// Webhook holds the pubsub settings for domain event delivery
type Webhook struct {
	Enabled         bool          `mapstructure:"enabled" default:"true"`
	Topic           string        `mapstructure:"topic" default:"webhooks"`
	EndpointURL     string        `mapstructure:"endpoint_url"`
	InvoicePaid     string        `mapstructure:"invoice_paid_topic" default:"invoice_paid"`
	PubSub          string        `mapstructure:"pubsub" default:"memory"`
	MaxRetries      int           `mapstructure:"max_retries" default:"3"`
	InitialInterval time.Duration `mapstructure:"initial_interval" default:"1s"`
	MaxInterval     time.Duration `mapstructure:"max_interval" default:"10s"`
	Multiplier      float64       `mapstructure:"multiplier" default:"2.0"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time" default:"2m"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RenewalConfig tunes the renewal batch runner
type RenewalConfig struct {
	// BatchSize caps how many due instances are fetched per page
	BatchSize int `mapstructure:"batch_size" default:"100"`
}

func NewConfig() (*Configuration, error) {
	// load a local .env if present; deployments use the real environment
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/subkit")

	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("webhook.enabled", true)
	v.SetDefault("webhook.topic", "webhooks")
	v.SetDefault("webhook.invoice_paid_topic", "invoice_paid")
	v.SetDefault("webhook.pubsub", "memory")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.max_elapsed_time", 2*time.Minute)
	v.SetDefault("renewal.batch_size", 100)

	// Set up environment variables support
	v.SetEnvPrefix("SUBKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for scripts and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Webhook: Webhook{
			Enabled:         true,
			Topic:           "webhooks",
			InvoicePaid:     "invoice_paid",
			PubSub:          "memory",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			MaxElapsedTime:  2 * time.Minute,
		},
		Renewal: RenewalConfig{BatchSize: 100},
	}
}
