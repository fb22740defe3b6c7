// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config.yaml. It provides
// type-safe access to the settings of the HTTP server, the outcome journal,
// authentication, the Gemini client, the admission controller, the task
// scheduler and tracing.
package config
