package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for generation payloads
var (
	ErrEmptyPrompt        = errors.New("prompt cannot be empty")
	ErrEmptyCourseTitle   = errors.New("course title cannot be empty")
	ErrEmptyModuleTitle   = errors.New("module title cannot be empty")
	ErrInvalidModuleCount = errors.New("module count must be between 0 and 20")
	ErrInvalidModuleIndex = errors.New("module index cannot be negative")
)

// MaxModuleCount bounds how many modules a metadata request may ask for.
const MaxModuleCount = 20

// Payload is the kind-specific input of a generation call. The set of
// implementations is closed: only MetadataRequest and ModuleRequest satisfy it.
type Payload interface {
	// Kind returns the generation kind this payload belongs to.
	Kind() Kind

	// Validate checks that the payload carries enough data to generate from.
	Validate() error

	isPayload()
}

// MetadataRequest asks for the outline of a new course.
type MetadataRequest struct {
	// Prompt is the user's free-text description of the course they want.
	Prompt string `json:"prompt"`

	// Audience optionally describes who the course is for.
	Audience string `json:"audience,omitempty"`

	// ModuleCount is the number of modules wanted; zero lets the generator decide.
	ModuleCount int `json:"module_count,omitempty"`
}

// Kind implements Payload.
func (MetadataRequest) Kind() Kind { return KindMetadata }

// Validate implements Payload.
func (r MetadataRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	if r.ModuleCount < 0 || r.ModuleCount > MaxModuleCount {
		return ErrInvalidModuleCount
	}
	return nil
}

func (MetadataRequest) isPayload() {}

// ModuleRequest asks for the content of one module of an existing course.
type ModuleRequest struct {
	CourseTitle       string `json:"course_title"`
	ModuleTitle       string `json:"module_title"`
	ModuleDescription string `json:"module_description,omitempty"`

	// ModuleIndex is the zero-based position of the module within the course.
	ModuleIndex int `json:"module_index"`
}

// Kind implements Payload.
func (ModuleRequest) Kind() Kind { return KindModule }

// Validate implements Payload.
func (r ModuleRequest) Validate() error {
	if strings.TrimSpace(r.CourseTitle) == "" {
		return ErrEmptyCourseTitle
	}
	if strings.TrimSpace(r.ModuleTitle) == "" {
		return ErrEmptyModuleTitle
	}
	if r.ModuleIndex < 0 {
		return ErrInvalidModuleIndex
	}
	return nil
}

func (ModuleRequest) isPayload() {}

// ValidatePayload checks a payload of any kind, wrapping failures in
// ErrValidation. A nil payload is reported as ErrUnknownKind.
func ValidatePayload(p Payload) error {
	switch p := p.(type) {
	case MetadataRequest:
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	case ModuleRequest:
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, p)
	}
	return nil
}
