package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "+15551234567", CleanPhone("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", CleanPhone("555.123.4567"))
	assert.Equal(t, "5551234567", CleanPhone("555 123 4567 ext"))
	assert.Equal(t, "", CleanPhone(""))
	// + only survives in the leading position.
	assert.Equal(t, "555123", CleanPhone("555+123"))
}

func TestParseCurrency(t *testing.T) {
	assert.Equal(t, 1500.0, ParseCurrency("$1,500"))
	assert.Equal(t, 1500.5, ParseCurrency("1,500.50"))
	assert.Equal(t, 97.0, ParseCurrency(" $97 "))
	assert.Equal(t, 0.0, ParseCurrency(""))
	assert.Equal(t, 0.0, ParseCurrency("n/a"))
}

func TestApplyTransformation(t *testing.T) {
	assert.Equal(t, "ada@x.com", applyTransformation(TransformLowercaseTrim, "  Ada@X.com "))
	assert.Equal(t, "hello", applyTransformation(TransformTrim, " hello "))
	assert.Equal(t, "hello", applyTransformation("", " hello "))
	assert.Equal(t, "hello", applyTransformation("unknownTransform", " hello "))
	assert.Equal(t, "1500", applyTransformation(TransformParseCurrency, "$1,500"))
}

func TestApplyTransformation_SkipPlaceholder(t *testing.T) {
	for _, v := range []string{"In CRM", "N/A", "na", "TBD", "none", "-", "--"} {
		assert.Equal(t, "", applyTransformation(TransformSkipPlaceholder, v), "input %q", v)
	}
	assert.Equal(t, "real value", applyTransformation(TransformSkipPlaceholder, " real value "))
}

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-06-01":           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		"06/01/2025":           time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		"6/1/2025":             time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		"Jan 2, 2025":          time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		"2025-06-01 14:30:00":  time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
		"2025-06-01T14:30:00Z": time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, ok := ParseDate(input)
		require.True(t, ok, "input %q", input)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, ok := ParseDate("not a date")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestCombineDatetime(t *testing.T) {
	got, ok := CombineDatetime("2025-06-01", "2:30 PM")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), got)

	got, ok = CombineDatetime("2025-06-01", "14:30")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), got)

	// Missing or garbage time leaves the date at midnight.
	got, ok = CombineDatetime("2025-06-01", "")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got)

	got, ok = CombineDatetime("2025-06-01", "sometime")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got)

	_, ok = CombineDatetime("garbage", "14:30")
	assert.False(t, ok)
}
