package domain

import "fmt"

// Kind identifies the variant of generation work a task or request carries.
type Kind string

// Supported generation kinds.
const (
	// KindMetadata generates a course title, description and module outline.
	KindMetadata Kind = "metadata"

	// KindModule generates the content sections and quiz of a single module.
	KindModule Kind = "module"
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMetadata, KindModule:
		return true
	default:
		return false
	}
}

// ParseKind converts a raw string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Priority orders work. Lower values are served first.
type Priority int

// Priority tiers.
const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// OrDefault returns p, or PriorityMedium when p is the zero value.
func (p Priority) OrDefault() Priority {
	if p == 0 {
		return PriorityMedium
	}
	return p
}

// Valid reports whether p is on the 1..3 scale.
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// String returns the tier name.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority accepts a tier name ("high", "medium", "low") or the empty
// string, which maps to medium.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "low":
		return PriorityLow, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}
