package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Admission AdmissionConfig `mapstructure:"admission" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains the outcome journal database settings.
// An empty URL keeps the journal in memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"omitempty,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=44640"`
}

// LLMConfig contains all LLM integration related settings.
// Without an API key the service runs offline and serves fallback content.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"          validate:"required"`

	// PromptTemplateDir overrides the built-in prompt templates when set.
	PromptTemplateDir string `mapstructure:"prompt_template_dir"`

	RequestsPerMinute int     `mapstructure:"requests_per_minute" validate:"gte=0"`
	Temperature       float32 `mapstructure:"temperature"         validate:"gte=0,lte=2"`
}

// AdmissionConfig mirrors admission.Config.
type AdmissionConfig struct {
	MaxConcurrentGlobal        int           `mapstructure:"max_concurrent_global"         validate:"gt=0"`
	MinConcurrentGlobal        int           `mapstructure:"min_concurrent_global"         validate:"gt=0,ltefield=MaxConcurrentGlobalCeiling"`
	MaxConcurrentGlobalCeiling int           `mapstructure:"max_concurrent_global_ceiling" validate:"gtefield=MaxConcurrentGlobal"`
	MaxConcurrentPerSubmitter  int           `mapstructure:"max_concurrent_per_submitter"  validate:"gt=0"`
	MaxRetries                 int           `mapstructure:"max_retries"                   validate:"gt=0"`
	AverageProcessingTime      time.Duration `mapstructure:"average_processing_time"       validate:"gt=0"`
	StaleAfter                 time.Duration `mapstructure:"stale_after"                   validate:"gt=0"`
	AdjustInterval             time.Duration `mapstructure:"adjust_interval"               validate:"gt=0"`
	CleanupInterval            time.Duration `mapstructure:"cleanup_interval"              validate:"gt=0"`
}

// SchedulerConfig mirrors task.SchedulerConfig.
type SchedulerConfig struct {
	ConcurrentLimit         int             `mapstructure:"concurrent_limit"            validate:"gt=0"`
	MaxInFlightPerSubmitter int             `mapstructure:"max_in_flight_per_submitter" validate:"gte=0"`
	MaxAttempts             int             `mapstructure:"max_attempts"                validate:"gt=0"`
	RetryDelays             []time.Duration `mapstructure:"retry_delays"                validate:"required,min=1,dive,gt=0"`
	AttemptTimeout          time.Duration   `mapstructure:"attempt_timeout"             validate:"gt=0"`
}

// TracingConfig selects the trace exporter.
type TracingConfig struct {
	Exporter    string  `mapstructure:"exporter"     validate:"omitempty,oneof=none stdout"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"gte=0,lte=1"`
}
