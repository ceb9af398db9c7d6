package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and optionally a
// config file. Environment variables take precedence over values from the
// config file, and use the INKPRESS_ prefix with underscores for nesting
// (e.g. INKPRESS_SERVER_PORT, INKPRESS_DATABASE_URL).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from the
		// environment. Any other read error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Secrets (database URL, API keys, JWT secret) deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("auth.token_expiry_minutes", 60)

	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.base_retry_delay_seconds", 1)

	v.SetDefault("image.enabled", false)
	v.SetDefault("image.model", "google/gemini-2.5-flash-image")
	v.SetDefault("image.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("image.upload_url", "https://tmpfiles.org/api/v1/upload")

	v.SetDefault("notion.polling_enabled", false)
	v.SetDefault("notion.poll_schedule", "* * * * *")

	v.SetDefault("task.max_retries", 3)
	v.SetDefault("task.retry_base_delay_seconds", 2)
}
