package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerAddr     string        `mapstructure:"SERVER_ADDR"`
	GinMode        string        `mapstructure:"GIN_MODE"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	TokenTTL       time.Duration `mapstructure:"TOKEN_TTL"`
	AppBaseURL     string        `mapstructure:"APP_BASE_URL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	KafkaBrokers   []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic     string        `mapstructure:"KAFKA_TOPIC"`
	AvatarDir      string        `mapstructure:"AVATAR_DIR"`
	AvatarMaxBytes int64         `mapstructure:"AVATAR_MAX_BYTES"`
}

var defaults = map[string]any{
	"SERVER_ADDR":      ":8080",
	"GIN_MODE":         "debug",
	"DATABASE_URL":     "",
	"JWT_SECRET":       "",
	"TOKEN_TTL":        "168h",
	"APP_BASE_URL":     "http://localhost:8080",
	"REDIS_ADDR":       "",
	"REDIS_PASSWORD":   "",
	"KAFKA_BROKERS":    "",
	"KAFKA_TOPIC":      "activity-events",
	"AVATAR_DIR":       "./data/avatars",
	"AVATAR_MAX_BYTES": 5 << 20,
}

// Load reads the configuration from a .env file in the working directory and
// environment variables, which take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AvatarMaxBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES must be positive"))
	}
	return errors.Join(errs...)
}
