package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Image    ImageConfig    `mapstructure:"image"`
	Notion   NotionConfig   `mapstructure:"notion"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings for the dashboard API.
// AdminPasswordHash is a bcrypt hash; the login endpoint verifies the
// submitted password against it and issues a JWT signed with JWTSecret.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"           validate:"required,min=32"`
	AdminPasswordHash  string `mapstructure:"admin_password_hash"  validate:"required"`
	TokenExpiryMinutes int    `mapstructure:"token_expiry_minutes" validate:"required,gt=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// MaxRetries bounds the provider-level retry loop for transient API
	// failures; distinct from the task-level retry budget in TaskConfig.
	MaxRetries            int `mapstructure:"max_retries"              validate:"gte=0"`
	BaseRetryDelaySeconds int `mapstructure:"base_retry_delay_seconds" validate:"gte=0"`
}

// ImageConfig controls the optional cover image stage.
type ImageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	UploadURL string `mapstructure:"upload_url"`
}

// NotionConfig controls the Notion trigger database poller.
type NotionConfig struct {
	PollingEnabled bool `mapstructure:"polling_enabled"`

	// PollSchedule is a standard 5-field cron expression.
	PollSchedule string `mapstructure:"poll_schedule"`
}

// TaskConfig controls orchestrator retry behavior for content tasks.
type TaskConfig struct {
	MaxRetries            int `mapstructure:"max_retries"              validate:"gt=0"`
	RetryBaseDelaySeconds int `mapstructure:"retry_base_delay_seconds" validate:"gt=0"`
}
