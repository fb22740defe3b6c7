// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownKind is returned when a payload or result kind is not one of
	// the supported generation kinds.
	ErrUnknownKind = errors.New("unknown generation kind")

	// ErrInvalidPriority is returned when a priority is outside the 1..3 scale.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)
