package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/coursegen/internal/domain"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"first sentence only", "distributed systems. Focus on consensus!", "Distributed Systems"},
		{"eight words at most", "one two three four five six seven eight nine ten", "One Two Three Four Five Six Seven Eight"},
		{"punctuation trimmed", "  \"rust\" (ownership) basics?", "Rust Ownership Basics"},
		{"acronyms kept", "HTTP APIs in Go", "HTTP APIs In Go"},
		{"nothing usable", "...", "Your Chosen Topic"},
		{"dotted name kept", "Learn Node.js basics", "Learn Node.js Basics"},
		{"version number kept", "Python 3.12 for data. Then pandas.", "Python 3.12 For Data"},
		{"line break ends sentence", "graph theory\nwith proofs", "Graph Theory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Subject(tt.prompt))
		})
	}
}

func TestGenerate_Metadata(t *testing.T) {
	t.Parallel()

	result, err := Generate(domain.MetadataRequest{
		Prompt:   "Photosynthesis for curious minds. Include experiments.",
		Audience: "high school students",
	})
	require.NoError(t, err)
	require.NoError(t, domain.ValidateResult(result))

	meta, ok := result.(*domain.CourseMetadata)
	require.True(t, ok)
	assert.Equal(t, "Introduction to Photosynthesis For Curious Minds", meta.Title)
	assert.Contains(t, meta.Description, "for high school students")
	assert.Contains(t, meta.Description, "5 modules")
	require.Len(t, meta.Modules, 5)
	assert.Equal(t, "Getting Started with Photosynthesis For Curious Minds", meta.Modules[0].Title)
	assert.Equal(t, "Review and Next Steps", meta.Modules[4].Title)
	assert.Equal(t, []string{"photosynthesis", "curious", "minds", "introductory"}, meta.Tags)
}

func TestGenerate_MetadataModuleCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		requested int
		want      int
	}{
		{0, 5},
		{1, 3},
		{3, 3},
		{6, 6},
		{8, 8},
		{20, 8},
	}

	for _, tt := range tests {
		result, err := Generate(domain.MetadataRequest{Prompt: "Chess", ModuleCount: tt.requested})
		require.NoError(t, err)
		meta := result.(*domain.CourseMetadata)
		assert.Len(t, meta.Modules, tt.want, "requested %d", tt.requested)
		assert.Equal(t, "Review and Next Steps", meta.Modules[len(meta.Modules)-1].Title)
	}
}

func TestGenerate_Module(t *testing.T) {
	t.Parallel()

	result, err := Generate(domain.ModuleRequest{
		CourseTitle:       "Introduction to Chess",
		ModuleTitle:       "Openings",
		ModuleDescription: "How to start a game well.",
		ModuleIndex:       1,
	})
	require.NoError(t, err)
	require.NoError(t, domain.ValidateResult(result))

	content, ok := result.(*domain.ModuleContent)
	require.True(t, ok)
	assert.Equal(t, "Openings", content.Title)
	require.Len(t, content.Sections, 3)
	assert.Equal(t, "Overview", content.Sections[0].Heading)
	assert.Contains(t, content.Sections[0].Body, "part 2 of Introduction to Chess")
	assert.Contains(t, content.Sections[0].Body, "How to start a game well.")
	assert.Equal(t, "Key Concepts", content.Sections[1].Heading)
	assert.Equal(t, "Applying Openings", content.Sections[2].Heading)

	require.Len(t, content.Quiz, 3)
	for i, q := range content.Quiz {
		assert.Equal(t, i, q.AnswerIndex)
		assert.Len(t, q.Options, 4)
	}
	assert.Contains(t, content.Quiz[0].Question, "\"Openings\"")
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	payload := domain.ModuleRequest{CourseTitle: "Go", ModuleTitle: "Channels"}
	first, err := Generate(payload)
	require.NoError(t, err)
	second, err := Generate(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Options are copied, so callers cannot corrupt the shared templates.
	first.(*domain.ModuleContent).Quiz[0].Options[0] = "changed"
	third, err := Generate(payload)
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestGenerate_InvalidPayload(t *testing.T) {
	t.Parallel()

	_, err := Generate(domain.MetadataRequest{Prompt: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, domain.ErrEmptyPrompt)

	_, err = Generate(domain.ModuleRequest{CourseTitle: "Go"})
	assert.ErrorIs(t, err, domain.ErrEmptyModuleTitle)

	_, err = Generate(nil)
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestEmergency(t *testing.T) {
	t.Parallel()

	for _, kind := range []domain.Kind{domain.KindMetadata, domain.KindModule, domain.Kind("unknown")} {
		result := Emergency(kind)
		require.NotNil(t, result)
		assert.NoError(t, domain.ValidateResult(result), "kind %q", kind)
	}

	assert.Equal(t, domain.KindModule, Emergency(domain.KindModule).Kind())
	assert.Equal(t, domain.KindMetadata, Emergency(domain.Kind("unknown")).Kind())
}
