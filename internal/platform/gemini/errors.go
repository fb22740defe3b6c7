package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrTemplateMissing is returned when no prompt template exists for a kind.
	ErrTemplateMissing = errors.New("prompt template missing")

	// ErrEmptyResponse is returned when the model answers without any text.
	ErrEmptyResponse = errors.New("model returned no text")
)
