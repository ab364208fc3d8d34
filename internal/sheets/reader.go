package sheets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Reader fetches the raw table for one spreadsheet tab. maxRows > 0
// truncates to header + maxRows data rows (preview fetches); 0 means
// unbounded.
type Reader interface {
	Fetch(ctx context.Context, loc Locator, maxRows int) (*Table, error)
}

// --- ExportReader: unauthenticated CSV export path ---

// ExportReader fetches the public CSV export of a tab. It requires the
// sheet to be link-viewable; a private sheet answers with an HTML
// access-gate page, which is classified as MALFORMED_RESPONSE so the
// caller can tell the user to fix sharing settings.
type ExportReader struct {
	Client  *http.Client
	BaseURL string
}

func NewExportReader(timeout time.Duration) *ExportReader {
	return &ExportReader{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: "https://docs.google.com",
	}
}

func (r *ExportReader) Fetch(ctx context.Context, loc Locator, maxRows int) (*Table, error) {
	if loc.SpreadsheetID == "" {
		return nil, NewError(CodeInvalidLocator, "missing spreadsheet id")
	}

	exportURL := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv", r.BaseURL, loc.SpreadsheetID)
	if loc.GID != "" {
		exportURL += "&gid=" + loc.GID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build export request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export fetch failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, NewError(CodeAccessDenied, "sheet is not link-viewable")
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewError(CodeNotFound, "spreadsheet or tab not found")
	case resp.StatusCode >= 500:
		return nil, &Error{Code: CodeMalformedResponse, Message: "export endpoint error " + resp.Status, Transient: true}
	case resp.StatusCode != http.StatusOK:
		return nil, NewError(CodeMalformedResponse, "unexpected export status "+resp.Status)
	}

	br := bufio.NewReader(resp.Body)
	if looksLikeHTML(br) {
		return nil, NewError(CodeMalformedResponse, "got HTML instead of CSV; sheet is likely access-gated")
	}

	table, err := ParseCSV(br)
	if err != nil {
		return nil, err
	}
	table.Truncate(maxRows)
	return table, nil
}

func looksLikeHTML(br *bufio.Reader) bool {
	peek, _ := br.Peek(256)
	head := bytes.ToLower(bytes.TrimSpace(peek))
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}

// --- APIReader: authenticated Sheets API path ---

// APIReader fetches cell values through the Sheets API with the user's
// OAuth token. The tab title is resolved from the locator's gid via the
// spreadsheet metadata; the first row is always treated as headers.
type APIReader struct {
	svc *sheetsv4.Service
}

func NewAPIReader(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*APIReader, error) {
	if token == nil {
		return nil, NewError(CodeAuthRequired, "no token for authenticated sheet access")
	}
	svc, err := sheetsv4.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &APIReader{svc: svc}, nil
}

func (r *APIReader) Fetch(ctx context.Context, loc Locator, maxRows int) (*Table, error) {
	if loc.SpreadsheetID == "" {
		return nil, NewError(CodeInvalidLocator, "missing spreadsheet id")
	}

	title, err := r.resolveTabTitle(ctx, loc)
	if err != nil {
		return nil, err
	}

	readRange := "'" + strings.ReplaceAll(title, "'", "''") + "'"
	if maxRows > 0 {
		// Header row plus the preview window.
		readRange += "!1:" + strconv.Itoa(maxRows+1)
	}

	values, err := r.svc.Spreadsheets.Values.Get(loc.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if len(values.Values) == 0 {
		return nil, NewError(CodeEmptySource, "sheet has no header row")
	}

	headers := make([]string, len(values.Values[0]))
	for i, v := range values.Values[0] {
		headers[i] = strings.TrimSpace(cellString(v))
	}

	table := &Table{Headers: headers}
	for i, record := range values.Values[1:] {
		rowValues := make(map[string]string, len(headers))
		empty := true
		for j, h := range headers {
			var cell string
			if j < len(record) {
				cell = cellString(record[j])
			}
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
			rowValues[h] = cell
		}
		if empty {
			continue
		}
		table.Rows = append(table.Rows, RawRow{Number: i + 2, Values: rowValues})
	}

	if len(table.Rows) == 0 {
		return nil, NewError(CodeEmptySource, "sheet has headers but no data rows")
	}
	table.Truncate(maxRows)
	return table, nil
}

func (r *APIReader) resolveTabTitle(ctx context.Context, loc Locator) (string, error) {
	if loc.TabName != "" {
		return loc.TabName, nil
	}
	meta, err := r.svc.Spreadsheets.Get(loc.SpreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(meta.Sheets) == 0 {
		return "", NewError(CodeEmptySource, "spreadsheet has no tabs")
	}
	if loc.GID == "" {
		return meta.Sheets[0].Properties.Title, nil
	}
	gid, err := strconv.ParseInt(loc.GID, 10, 64)
	if err != nil {
		return "", NewError(CodeInvalidLocator, "invalid gid "+loc.GID)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.SheetId == gid {
			return s.Properties.Title, nil
		}
	}
	return "", NewError(CodeNotFound, "no tab with gid "+loc.GID)
}

func classifyAPIError(err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch ge.Code {
		case http.StatusUnauthorized:
			return WrapError(CodeAuthRequired, "sheets API rejected the token", err)
		case http.StatusForbidden:
			return WrapError(CodeAccessDenied, "no access to spreadsheet", err)
		case http.StatusNotFound:
			return WrapError(CodeNotFound, "spreadsheet not found", err)
		}
		if ge.Code >= 500 {
			return &Error{Code: CodeMalformedResponse, Message: "sheets API error", Transient: true, Err: err}
		}
	}
	return fmt.Errorf("sheets API call failed: %w", err)
}

func cellString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// --- FallbackReader ---

// FallbackReader tries the authenticated path and degrades to the
// public export on any failure. Primary may be nil when the user has no
// usable credential, in which case only the export path runs.
type FallbackReader struct {
	Primary  Reader
	Fallback Reader
}

func (r *FallbackReader) Fetch(ctx context.Context, loc Locator, maxRows int) (*Table, error) {
	if r.Primary != nil {
		table, err := r.Primary.Fetch(ctx, loc, maxRows)
		if err == nil {
			return table, nil
		}
		// EMPTY_SOURCE is a truthful answer, not an access problem.
		if CodeOf(err) == CodeEmptySource {
			return nil, err
		}
		slog.Warn("authenticated sheet fetch failed, falling back to export",
			"spreadsheet_id", loc.SpreadsheetID, "error", err)
	}
	return r.Fallback.Fetch(ctx, loc, maxRows)
}
