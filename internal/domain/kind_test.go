package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("metadata")
	require.NoError(t, err)
	assert.Equal(t, KindMetadata, k)

	k, err = ParseKind("module")
	require.NoError(t, err)
	assert.Equal(t, KindModule, k)

	_, err = ParseKind("lesson")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestPriority(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PriorityMedium, Priority(0).OrDefault())
	assert.Equal(t, PriorityHigh, PriorityHigh.OrDefault())

	assert.True(t, PriorityHigh.Valid())
	assert.True(t, PriorityLow.Valid())
	assert.False(t, Priority(0).Valid())
	assert.False(t, Priority(4).Valid())

	assert.Equal(t, "high", PriorityHigh.String())
	assert.Equal(t, "priority(7)", Priority(7).String())
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityMedium, false},
		{"high", PriorityHigh, false},
		{"medium", PriorityMedium, false},
		{"low", PriorityLow, false},
		{"urgent", 0, true},
	}

	for _, tc := range tests {
		got, err := ParsePriority(tc.in)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPriority, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}
