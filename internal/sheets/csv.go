package sheets

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads an RFC 4180 CSV export into a Table. The first record
// defines the headers (trimmed); data records are zipped against the
// headers positionally, short records backfilled with "". A duplicate
// header name means the later column wins when read back by name. Rows
// whose cells are all empty are skipped but still consume a row number,
// keeping provenance numbers aligned with the sheet.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, WrapError(CodeMalformedResponse, "invalid CSV", err)
	}
	if len(records) == 0 {
		return nil, NewError(CodeEmptySource, "sheet has no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for i, record := range records[1:] {
		if allEmpty(record) {
			continue
		}
		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(record) {
				values[h] = record[j]
			} else {
				values[h] = ""
			}
		}
		// Header row is sheet row 1.
		table.Rows = append(table.Rows, RawRow{Number: i + 2, Values: values})
	}

	if len(table.Rows) == 0 {
		return nil, NewError(CodeEmptySource, fmt.Sprintf("sheet has headers (%d) but no data rows", len(headers)))
	}
	return table, nil
}

func allEmpty(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
