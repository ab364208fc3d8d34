package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator_FullURL(t *testing.T) {
	loc, err := ParseLocator("https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=123456")
	require.NoError(t, err)
	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", loc.SpreadsheetID)
	assert.Equal(t, "123456", loc.GID)
}

func TestParseLocator_URLWithoutGID(t *testing.T) {
	loc, err := ParseLocator("https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit")
	require.NoError(t, err)
	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", loc.SpreadsheetID)
	assert.Equal(t, "", loc.GID)
}

func TestParseLocator_QueryGID(t *testing.T) {
	loc, err := ParseLocator("https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit?gid=42")
	require.NoError(t, err)
	assert.Equal(t, "42", loc.GID)
}

func TestParseLocator_BareID(t *testing.T) {
	loc, err := ParseLocator("1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms")
	require.NoError(t, err)
	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", loc.SpreadsheetID)
}

func TestParseLocator_Invalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not a url",
		"https://example.com/some/other/path",
		"https://docs.google.com/document/d/abc123",
	}
	for _, raw := range cases {
		_, err := ParseLocator(raw)
		require.Error(t, err, "locator %q", raw)
		assert.Equal(t, CodeInvalidLocator, CodeOf(err))
	}
}
