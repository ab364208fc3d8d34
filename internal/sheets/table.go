package sheets

// RawRow is one data row keyed by header name. Number is the 1-based
// sheet row; the header row counts as row 1, so the first data row is 2.
// Number is the row's provenance key within its connection.
type RawRow struct {
	Number int
	Values map[string]string
}

// Get returns the value for a header name, or "".
func (r RawRow) Get(column string) string {
	return r.Values[column]
}

// Table is an ordered header list plus data rows.
type Table struct {
	Headers []string
	Rows    []RawRow
}

// Truncate limits the table to the first n data rows. n <= 0 leaves the
// table unchanged.
func (t *Table) Truncate(n int) {
	if n > 0 && len(t.Rows) > n {
		t.Rows = t.Rows[:n]
	}
}
