package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataRequestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, MetadataRequest{Prompt: "Learn Go concurrency"}.Validate())
	assert.ErrorIs(t, MetadataRequest{Prompt: "   "}.Validate(), ErrEmptyPrompt)
	assert.ErrorIs(t, MetadataRequest{Prompt: "x", ModuleCount: -1}.Validate(), ErrInvalidModuleCount)
	assert.ErrorIs(t, MetadataRequest{Prompt: "x", ModuleCount: MaxModuleCount + 1}.Validate(), ErrInvalidModuleCount)
}

func TestModuleRequestValidate(t *testing.T) {
	t.Parallel()

	valid := ModuleRequest{CourseTitle: "Go", ModuleTitle: "Channels"}
	assert.NoError(t, valid.Validate())

	noCourse := valid
	noCourse.CourseTitle = ""
	assert.ErrorIs(t, noCourse.Validate(), ErrEmptyCourseTitle)

	noModule := valid
	noModule.ModuleTitle = ""
	assert.ErrorIs(t, noModule.Validate(), ErrEmptyModuleTitle)

	negative := valid
	negative.ModuleIndex = -2
	assert.ErrorIs(t, negative.Validate(), ErrInvalidModuleIndex)
}

func TestValidatePayload(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePayload(MetadataRequest{Prompt: "p"}))

	err := ValidatePayload(ModuleRequest{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrEmptyCourseTitle)

	assert.ErrorIs(t, ValidatePayload(nil), ErrUnknownKind)
}
