package mapping

import (
	"strconv"
	"strings"
	"time"
)

// Transformation names accepted in a ColumnMapping.
const (
	TransformTrim            = "trim"
	TransformLowercaseTrim   = "lowercaseTrim"
	TransformCleanPhone      = "cleanPhone"
	TransformParseCurrency   = "parseCurrency"
	TransformSkipPlaceholder = "skipIfPlaceholder"
	TransformCombineDatetime = "combineDatetime"
)

// placeholders are sentinel cell values that mean "no real value here".
var placeholders = map[string]bool{
	"in crm": true,
	"n/a":    true,
	"na":     true,
	"tbd":    true,
	"none":   true,
	"-":      true,
	"--":     true,
}

// applyTransformation runs the named transformation on a raw cell value.
// Unknown names fall back to a plain trim.
func applyTransformation(name, value string) string {
	switch name {
	case TransformLowercaseTrim:
		return strings.ToLower(strings.TrimSpace(value))
	case TransformCleanPhone:
		return CleanPhone(value)
	case TransformParseCurrency:
		// Kept as a normalized string; numeric fields re-parse it.
		return strings.TrimSpace(stripCurrency(value))
	case TransformSkipPlaceholder:
		trimmed := strings.TrimSpace(value)
		if placeholders[strings.ToLower(trimmed)] {
			return ""
		}
		return trimmed
	case TransformTrim, "", TransformCombineDatetime:
		return strings.TrimSpace(value)
	default:
		return strings.TrimSpace(value)
	}
}

// CleanPhone strips every non-digit except a leading +.
func CleanPhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripCurrency(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "$", "")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, " ", "")
	return value
}

// ParseCurrency strips currency formatting and parses a decimal amount.
// Unparseable input yields 0.
func ParseCurrency(value string) float64 {
	cleaned := stripCurrency(value)
	if cleaned == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return amount
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

var timeLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3:04 pm",
	"3 PM",
	"3PM",
}

// ParseDate parses a date-only (or full datetime) cell value in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CombineDatetime merges a date-only and a time-only cell into one
// timestamp. A missing or unparseable time component leaves the date at
// midnight UTC.
func CombineDatetime(dateValue, timeValue string) (time.Time, bool) {
	date, ok := ParseDate(dateValue)
	if !ok {
		return time.Time{}, false
	}
	timeValue = strings.TrimSpace(timeValue)
	if timeValue == "" {
		return date, true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(timeValue)); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
		}
	}
	return date, true
}
