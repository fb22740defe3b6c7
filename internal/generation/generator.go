package generation

import (
	"context"

	"github.com/phrazzld/coursegen/internal/domain"
)

// Generator produces course content for a payload. The concrete result type
// follows the payload kind: *domain.CourseMetadata for a MetadataRequest and
// *domain.ModuleContent for a ModuleRequest.
//
// Implementations must not retry internally; retry policy belongs to the
// caller.
type Generator interface {
	Generate(ctx context.Context, payload domain.Payload) (domain.Result, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, payload domain.Payload) (domain.Result, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, payload domain.Payload) (domain.Result, error) {
	return f(ctx, payload)
}

// Offline is a Generator that always fails with ErrUnavailable. It is used
// when no model credentials are configured, so every request degrades to
// fallback content.
type Offline struct{}

// Generate implements Generator.
func (Offline) Generate(ctx context.Context, payload domain.Payload) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}
