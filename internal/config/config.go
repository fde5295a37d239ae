// Package config loads runtime settings from an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the server and the CLI.
type Config struct {
	APIKey        string        `mapstructure:"simfin_api_key" validate:"required"`
	DataDir       string        `mapstructure:"data_dir" validate:"required"`
	BaseURL       string        `mapstructure:"simfin_base_url" validate:"omitempty,url"`
	RefreshDays   int           `mapstructure:"simfin_refresh_days" validate:"gte=0"`
	RateLimit     float64       `mapstructure:"simfin_rate_limit" validate:"gt=0"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	RefreshPrices bool          `mapstructure:"refresh_prices"`
	DefaultMarket string        `mapstructure:"default_market" validate:"required,alpha"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port" validate:"min=1,max=65535"`
	LogLevel      string        `mapstructure:"log_level" validate:"required"`
	LogFormat     string        `mapstructure:"log_format" validate:"oneof=json console"`
}

var defaults = map[string]any{
	"data_dir":            "data/simfin_data/",
	"simfin_base_url":     "",
	"simfin_refresh_days": 30,
	"simfin_rate_limit":   2.0,
	"fetch_timeout":       5 * time.Minute,
	"refresh_prices":      false,
	"default_market":      "us",
	"host":                "127.0.0.1",
	"port":                8000,
	"log_level":           "info",
	"log_format":          "json",
}

// Load reads envFiles (default .env) when present, then the environment.
// SIMFIN_API_KEY is required.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetDefault("simfin_api_key", "")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DefaultMarket = strings.ToLower(cfg.DefaultMarket)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings and the log level.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", envName(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid config: LOG_LEVEL: %w", err)
	}
	return nil
}

var envNames = map[string]string{
	"APIKey":        "SIMFIN_API_KEY",
	"DataDir":       "DATA_DIR",
	"BaseURL":       "SIMFIN_BASE_URL",
	"RefreshDays":   "SIMFIN_REFRESH_DAYS",
	"RateLimit":     "SIMFIN_RATE_LIMIT",
	"FetchTimeout":  "FETCH_TIMEOUT",
	"DefaultMarket": "DEFAULT_MARKET",
	"Port":          "PORT",
	"LogLevel":      "LOG_LEVEL",
	"LogFormat":     "LOG_FORMAT",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
