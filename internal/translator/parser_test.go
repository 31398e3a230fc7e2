package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulkReply_WellFormed(t *testing.T) {
	raw := `[
		{"index": 1, "translated": "uno"},
		{"index": 2, "translated": "dos"},
		{"index": 3, "translated": "tres"}
	]`

	result, ok := parseBulkReply(raw, 3)

	require.True(t, ok)
	assert.Equal(t, []string{"uno", "dos", "tres"}, result)
}

func TestParseBulkReply_SurroundingNoise(t *testing.T) {
	raw := "Sure! Here is the translated array:\n" +
		`[{"index": 1, "translated": "bonjour"}, {"index": 2, "translated": "monde"}]` +
		"\nLet me know if you need anything else."

	result, ok := parseBulkReply(raw, 2)

	require.True(t, ok)
	assert.Equal(t, []string{"bonjour", "monde"}, result)
}

func TestParseBulkReply_MissingIndexGapFilled(t *testing.T) {
	raw := `[
		{"index": 1, "translated": "a"},
		{"index": 2, "translated": "b"},
		{"index": 4, "translated": "d"},
		{"index": 5, "translated": "e"}
	]`

	result, ok := parseBulkReply(raw, 5)

	require.True(t, ok)
	require.Len(t, result, 5)
	assert.Equal(t, "", result[2])
	assert.Equal(t, []string{"a", "b", "", "d", "e"}, result)
}

func TestParseBulkReply_DuplicateIndexLastWins(t *testing.T) {
	raw := `[
		{"index": 1, "translated": "first"},
		{"index": 1, "translated": "second"}
	]`

	result, ok := parseBulkReply(raw, 1)

	require.True(t, ok)
	assert.Equal(t, []string{"second"}, result)
}

func TestParseBulkReply_CaseInsensitiveFields(t *testing.T) {
	raw := `[{"Index": 1, "TRANSLATED": "hallo"}]`

	result, ok := parseBulkReply(raw, 1)

	require.True(t, ok)
	assert.Equal(t, []string{"hallo"}, result)
}

func TestParseBulkReply_NoArrayDelimiters(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain prose", "I could not translate that, sorry."},
		{"only opening bracket", `here it comes: [{"index": 1`},
		{"only closing bracket", `]`},
		{"empty reply", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := parseBulkReply(tt.raw, 3)

			assert.False(t, ok)
			assert.Nil(t, result)
		})
	}
}

func TestParseBulkReply_UndecodableArray(t *testing.T) {
	raw := `[{"index": oops, "translated": }]`

	result, ok := parseBulkReply(raw, 2)

	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestParseBulkReply_ExtraIndicesIgnored(t *testing.T) {
	raw := `[
		{"index": 1, "translated": "keep"},
		{"index": 7, "translated": "out of range"}
	]`

	result, ok := parseBulkReply(raw, 2)

	require.True(t, ok)
	assert.Equal(t, []string{"keep", ""}, result)
}
