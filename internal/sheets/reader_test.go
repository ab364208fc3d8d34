package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportServer(t *testing.T, handler http.HandlerFunc) *ExportReader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	r := NewExportReader(5 * time.Second)
	r.BaseURL = srv.URL
	return r
}

func TestExportReader_Fetch(t *testing.T) {
	r := exportServer(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Contains(t, req.URL.Path, "/spreadsheets/d/spreadsheet-id-0123456789/export")
		assert.Equal(t, "csv", req.URL.Query().Get("format"))
		assert.Equal(t, "7", req.URL.Query().Get("gid"))
		w.Write([]byte("Name,Email\nAda,ada@x.com\n"))
	})

	table, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "spreadsheet-id-0123456789", GID: "7"}, 0)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ada", table.Rows[0].Get("Name"))
}

func TestExportReader_PreviewTruncates(t *testing.T) {
	r := exportServer(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("Name\nA\nB\nC\nD\n"))
	})

	table, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "spreadsheet-id-0123456789"}, 2)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestExportReader_StatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		code      Code
		retryable bool
	}{
		{http.StatusForbidden, CodeAccessDenied, false},
		{http.StatusNotFound, CodeNotFound, false},
		{http.StatusBadGateway, CodeMalformedResponse, true},
		{http.StatusTeapot, CodeMalformedResponse, false},
	}

	for _, tc := range cases {
		r := exportServer(t, func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "spreadsheet-id-0123456789"}, 0)
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.code, CodeOf(err), "status %d", tc.status)
		assert.Equal(t, tc.retryable, IsRetryable(err), "status %d", tc.status)
	}
}

func TestExportReader_HTMLGate(t *testing.T) {
	r := exportServer(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("<!DOCTYPE html><html><body>Sign in</body></html>"))
	})

	_, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "spreadsheet-id-0123456789"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeMalformedResponse, CodeOf(err))
}

func TestExportReader_MissingID(t *testing.T) {
	r := NewExportReader(time.Second)
	_, err := r.Fetch(context.Background(), Locator{}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidLocator, CodeOf(err))
}

type stubReader struct {
	table *Table
	err   error
	calls int
}

func (s *stubReader) Fetch(ctx context.Context, loc Locator, maxRows int) (*Table, error) {
	s.calls++
	return s.table, s.err
}

func TestFallbackReader_PrimaryWins(t *testing.T) {
	primary := &stubReader{table: &Table{Headers: []string{"Name"}, Rows: []RawRow{{Number: 2, Values: map[string]string{"Name": "Ada"}}}}}
	fallback := &stubReader{}

	r := &FallbackReader{Primary: primary, Fallback: fallback}
	table, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ada", table.Rows[0].Get("Name"))
	assert.Zero(t, fallback.calls)
}

func TestFallbackReader_DegradesOnPrimaryFailure(t *testing.T) {
	primary := &stubReader{err: NewError(CodeAuthRequired, "token rejected")}
	fallback := &stubReader{table: &Table{Headers: []string{"Name"}, Rows: []RawRow{{Number: 2, Values: map[string]string{"Name": "Ada"}}}}}

	r := &FallbackReader{Primary: primary, Fallback: fallback}
	table, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "Ada", table.Rows[0].Get("Name"))
}

func TestFallbackReader_EmptySourceNotFallenBack(t *testing.T) {
	primary := &stubReader{err: NewError(CodeEmptySource, "no data rows")}
	fallback := &stubReader{}

	r := &FallbackReader{Primary: primary, Fallback: fallback}
	_, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "x"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeEmptySource, CodeOf(err))
	assert.Zero(t, fallback.calls)
}

func TestFallbackReader_NilPrimary(t *testing.T) {
	fallback := &stubReader{table: &Table{Headers: []string{"Name"}, Rows: []RawRow{{Number: 2, Values: map[string]string{"Name": "Ada"}}}}}

	r := &FallbackReader{Fallback: fallback}
	table, err := r.Fetch(context.Background(), Locator{SpreadsheetID: "x"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Ada", table.Rows[0].Get("Name"))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(NewError(CodeAccessDenied, "x")))
	assert.True(t, IsRetryable(&Error{Code: CodeMalformedResponse, Transient: true}))
	// Unclassified errors are assumed to be transport failures.
	assert.True(t, IsRetryable(errors.New("connection reset")))
}
