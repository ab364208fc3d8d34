package sheets

import (
	"net/url"
	"regexp"
	"strings"
)

// Locator identifies one spreadsheet tab: the spreadsheet id plus an
// optional grid id ("gid"). GID "" means the first tab. TabName is only
// honored by the authenticated reader (the CSV export endpoint is
// gid-addressed); when set it wins over GID.
type Locator struct {
	SpreadsheetID string
	GID           string
	TabName       string
}

var (
	spreadsheetPathRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)
	spreadsheetIDRe   = regexp.MustCompile(`^[a-zA-Z0-9\-_]{20,}$`)
	gidRe             = regexp.MustCompile(`[?#&]gid=(\d+)`)
)

// ParseLocator accepts either a full Google Sheets URL or a bare
// spreadsheet id and returns a Locator, or INVALID_LOCATOR.
func ParseLocator(raw string) (Locator, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Locator{}, NewError(CodeInvalidLocator, "empty sheet locator")
	}

	if spreadsheetIDRe.MatchString(raw) {
		return Locator{SpreadsheetID: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Locator{}, NewError(CodeInvalidLocator, "not a sheet URL or spreadsheet id: "+raw)
	}

	m := spreadsheetPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return Locator{}, NewError(CodeInvalidLocator, "URL does not reference a spreadsheet: "+raw)
	}

	loc := Locator{SpreadsheetID: m[1]}
	if g := gidRe.FindStringSubmatch(raw); g != nil {
		loc.GID = g[1]
	}
	return loc, nil
}
