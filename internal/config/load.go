package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. COURSEGEN_SERVER_PORT for server.port.
const EnvPrefix = "COURSEGEN"

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the file. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_dir", "")
	v.SetDefault("llm.requests_per_minute", 60)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("admission.max_concurrent_global", 3)
	v.SetDefault("admission.min_concurrent_global", 2)
	v.SetDefault("admission.max_concurrent_global_ceiling", 8)
	v.SetDefault("admission.max_concurrent_per_submitter", 1)
	v.SetDefault("admission.max_retries", 3)
	v.SetDefault("admission.average_processing_time", 30*time.Second)
	v.SetDefault("admission.stale_after", 5*time.Minute)
	v.SetDefault("admission.adjust_interval", time.Minute)
	v.SetDefault("admission.cleanup_interval", time.Minute)

	v.SetDefault("scheduler.concurrent_limit", 3)
	v.SetDefault("scheduler.max_in_flight_per_submitter", 1)
	v.SetDefault("scheduler.max_attempts", 4)
	v.SetDefault("scheduler.retry_delays", []string{"5s", "15s", "45s", "120s"})
	v.SetDefault("scheduler.attempt_timeout", 2*time.Minute)

	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.service_name", "coursegen")
	v.SetDefault("tracing.sample_ratio", 1.0)
}
