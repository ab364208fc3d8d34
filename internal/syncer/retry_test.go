package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pipeboard/pipeboard/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &sheets.Error{Code: sheets.CodeMalformedResponse, Transient: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	transient := &sheets.Error{Code: sheets.CodeMalformedResponse, Transient: true}
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		return transient
	})
	require.Error(t, err)
	assert.Equal(t, maxRetries+1, calls)
}

func TestWithRetry_PermanentErrorNotRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		return sheets.NewError(sheets.CodeAccessDenied, "private sheet")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_UnclassifiedErrorsRetried(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), time.Millisecond, func() error {
		calls++
		return errors.New("connection reset")
	})
	require.Error(t, err)
	assert.Equal(t, maxRetries+1, calls)
}

func TestWithRetry_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, time.Hour, func() error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
