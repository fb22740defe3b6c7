package generation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/generation"
)

func TestGeneratorFunc(t *testing.T) {
	t.Parallel()

	want := &domain.CourseMetadata{Title: "Go"}
	var gen generation.Generator = generation.GeneratorFunc(
		func(ctx context.Context, payload domain.Payload) (domain.Result, error) {
			assert.Equal(t, domain.KindMetadata, payload.Kind())
			return want, nil
		},
	)

	got, err := gen.Generate(context.Background(), domain.MetadataRequest{Prompt: "Learn Go"})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestOffline(t *testing.T) {
	t.Parallel()

	var gen generation.Generator = generation.Offline{}

	_, err := gen.Generate(context.Background(), domain.ModuleRequest{CourseTitle: "Go"})
	assert.ErrorIs(t, err, generation.ErrUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = gen.Generate(ctx, domain.ModuleRequest{CourseTitle: "Go"})
	assert.ErrorIs(t, err, context.Canceled)
}
