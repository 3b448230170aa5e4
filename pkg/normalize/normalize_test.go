package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
		ok       bool
	}{
		{
			name:     "json array",
			raw:      `["São Paulo", "Campinas"]`,
			expected: []string{"São Paulo", "Campinas"},
			ok:       true,
		},
		{
			name:     "empty json array",
			raw:      `[]`,
			expected: nil,
			ok:       true,
		},
		{
			name:     "empty string",
			raw:      "",
			expected: nil,
			ok:       true,
		},
		{
			name:     "whitespace only",
			raw:      "   ",
			expected: nil,
			ok:       true,
		},
		{
			name:     "legacy comma separated",
			raw:      "SP, RJ,MG",
			expected: []string{"SP", "RJ", "MG"},
			ok:       true,
		},
		{
			name:     "legacy single value",
			raw:      "RENT",
			expected: []string{"RENT"},
			ok:       true,
		},
		{
			name:     "malformed json is fail-soft",
			raw:      `["SP", "RJ"`,
			expected: nil,
			ok:       false,
		},
		{
			name:     "json array of wrong type is fail-soft",
			raw:      `[1, 2, 3]`,
			expected: nil,
			ok:       false,
		},
		{
			name:     "json array with blank entries",
			raw:      `["SP", "", "  "]`,
			expected: []string{"SP"},
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, ok := StringList(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if len(tt.expected) == 0 {
				assert.Empty(t, values)
			} else {
				assert.Equal(t, tt.expected, values)
			}
		})
	}
}

func TestEncodeStringList(t *testing.T) {
	assert.Equal(t, `[]`, EncodeStringList(nil))
	assert.Equal(t, `[]`, EncodeStringList([]string{"", "  "}))
	assert.Equal(t, `["SP","RJ"]`, EncodeStringList([]string{"SP", " RJ "}))
}

func TestEncodeStringListRoundTrip(t *testing.T) {
	values, ok := StringList(EncodeStringList([]string{"São Paulo", "Rio de Janeiro"}))
	assert.True(t, ok)
	assert.Equal(t, []string{"São Paulo", "Rio de Janeiro"}, values)
}

func TestLowerSet(t *testing.T) {
	set := LowerSet([]string{"São Paulo", " CAMPINAS ", ""})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "são paulo")
	assert.Contains(t, set, "campinas")
}
