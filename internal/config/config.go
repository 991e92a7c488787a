package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ntechservices/subscription/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `validate:"required"`
	Logging      LoggingConfig      `validate:"required"`
	Postgres     PostgresConfig     `validate:"required"`
	Cache        CacheConfig        ``
	Subscription SubscriptionConfig `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled bool
}

// SubscriptionConfig carries the billing defaults stamped onto new
// subscriptions and the proration switch for plan changes.
type SubscriptionConfig struct {
	DefaultGraceValue     int                `mapstructure:"default_grace_value"`
	DefaultGraceCycle     types.BillingCycle `mapstructure:"default_grace_cycle"`
	EnableProratedBilling bool               `mapstructure:"enable_prorated_billing"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/subscription")

	// Set up environment variables support
	v.SetEnvPrefix("SUBSCRIPTION")
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

	applyDefaults(&config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(c *Configuration) {
	if c.Deployment.Mode == "" {
		c.Deployment.Mode = types.ModeLocal
	}
	if c.Logging.Level == "" {
		c.Logging.Level = types.LogLevelInfo
	}
	if c.Subscription.DefaultGraceCycle == "" {
		c.Subscription.DefaultGraceCycle = types.BillingCycleDaily
	}
	if c.Subscription.DefaultGraceValue == 0 {
		c.Subscription.DefaultGraceValue = 5
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return c.Subscription.DefaultGraceCycle.Validate()
}

// GetDefaultConfig returns a default configuration for local development
// and unit tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Subscription: SubscriptionConfig{
			DefaultGraceValue:     5,
			DefaultGraceCycle:     types.BillingCycleDaily,
			EnableProratedBilling: false,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
