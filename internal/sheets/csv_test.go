package sheets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV_QuotedFields(t *testing.T) {
	input := "Name,Email,\"Notes, w/ comma\"\nAda,ada@x.com,\"Hello, \"\"world\"\"\"\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Email", "Notes, w/ comma"}, table.Headers)
	require.Len(t, table.Rows, 1)

	row := table.Rows[0]
	assert.Equal(t, 2, row.Number)
	assert.Equal(t, "Ada", row.Get("Name"))
	assert.Equal(t, "ada@x.com", row.Get("Email"))
	assert.Equal(t, `Hello, "world"`, row.Get("Notes, w/ comma"))
}

func TestParseCSV_RowNumbering(t *testing.T) {
	input := "Name,Email\nAda,ada@x.com\nBob,bob@x.com\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	// Header row is sheet row 1.
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, 3, table.Rows[1].Number)
}

func TestParseCSV_EmptyRowsSkippedButNumbered(t *testing.T) {
	input := "Name,Email\nAda,ada@x.com\n,\nBob,bob@x.com\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	// The blank row 3 is dropped but still consumes its number.
	assert.Equal(t, 2, table.Rows[0].Number)
	assert.Equal(t, 4, table.Rows[1].Number)
	assert.Equal(t, "Bob", table.Rows[1].Get("Name"))
}

func TestParseCSV_ShortRowsBackfilled(t *testing.T) {
	input := "Name,Email,Phone\nAda,ada@x.com\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0].Get("Phone"))
}

func TestParseCSV_DuplicateHeaderLastWins(t *testing.T) {
	input := "Name,Status,Status\nAda,old,new\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "new", table.Rows[0].Get("Status"))
}

func TestParseCSV_HeaderWhitespaceTrimmed(t *testing.T) {
	input := " Name , Email \nAda,ada@x.com\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email"}, table.Headers)
	assert.Equal(t, "Ada", table.Rows[0].Get("Name"))
}

func TestParseCSV_NoDataRows(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Name,Email\n"))
	require.Error(t, err)
	assert.Equal(t, CodeEmptySource, CodeOf(err))
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Equal(t, CodeEmptySource, CodeOf(err))
}
