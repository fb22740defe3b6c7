package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors for generated content
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrNoModules         = errors.New("course must have at least one module")
	ErrNoSections        = errors.New("module must have at least one section")
	ErrInvalidQuizAnswer = errors.New("quiz answer index out of range")
)

// Result is the kind-specific output of a generation call. The set of
// implementations is closed: only *CourseMetadata and *ModuleContent satisfy it.
type Result interface {
	// Kind returns the generation kind this result belongs to.
	Kind() Kind

	// Validate checks that the result is structurally usable.
	Validate() error

	isResult()
}

// ModuleOutline names one module of a course.
type ModuleOutline struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CourseMetadata is the generated outline of a course.
type CourseMetadata struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Modules     []ModuleOutline `json:"modules"`
	Tags        []string        `json:"tags,omitempty"`
}

// Kind implements Result.
func (*CourseMetadata) Kind() Kind { return KindMetadata }

// Validate implements Result.
func (m *CourseMetadata) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrEmptyTitle
	}
	if len(m.Modules) == 0 {
		return ErrNoModules
	}
	for i, mod := range m.Modules {
		if strings.TrimSpace(mod.Title) == "" {
			return fmt.Errorf("module %d: %w", i, ErrEmptyTitle)
		}
	}
	return nil
}

func (*CourseMetadata) isResult() {}

// Section is one block of module prose.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// QuizQuestion is a multiple choice question; AnswerIndex points into Options.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answer_index"`
}

// ModuleContent is the generated body of a module.
type ModuleContent struct {
	Title    string         `json:"title"`
	Sections []Section      `json:"sections"`
	Quiz     []QuizQuestion `json:"quiz,omitempty"`
}

// Kind implements Result.
func (*ModuleContent) Kind() Kind { return KindModule }

// Validate implements Result.
func (m *ModuleContent) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return ErrEmptyTitle
	}
	if len(m.Sections) == 0 {
		return ErrNoSections
	}
	for i, q := range m.Quiz {
		if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Options) {
			return fmt.Errorf("question %d: %w", i, ErrInvalidQuizAnswer)
		}
	}
	return nil
}

func (*ModuleContent) isResult() {}

// ValidateResult checks a result of any kind, wrapping failures in
// ErrValidation. A nil result is reported as ErrUnknownKind.
func ValidateResult(r Result) error {
	switch r := r.(type) {
	case *CourseMetadata:
		if r == nil {
			return fmt.Errorf("%w: nil metadata", ErrUnknownKind)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	case *ModuleContent:
		if r == nil {
			return fmt.Errorf("%w: nil module", ErrUnknownKind)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
	return nil
}
