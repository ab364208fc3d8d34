package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"golang.org/x/oauth2"
)

// State of a per-connection sync run.
type State string

const (
	StateIdle           State = "idle"
	StateTokenResolving State = "token_resolving"
	StateFetching       State = "fetching"
	StateTransforming   State = "transforming"
	StateReconciling    State = "reconciling"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

const (
	previewRows = 20
	sampleRows  = 5
)

// RowError records one skipped or failed row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Summary is the per-connection sync result returned by every trigger
// surface.
type Summary struct {
	ConnectionID   uuid.UUID        `json:"connection_id"`
	SheetType      models.SheetType `json:"sheet_type"`
	State          State            `json:"state"`
	Imported       int              `json:"imported"`
	Updated        int              `json:"updated"`
	SkippedLocal   int              `json:"skipped_local"`
	Failed         int              `json:"failed"`
	Errors         []RowError       `json:"errors,omitempty"`
	FailureCode    sheets.Code      `json:"failure_code,omitempty"`
	FailureMessage string           `json:"failure_message,omitempty"`
}

// AnalyzeResult is the review payload for one tab, consumed by the UI
// before a connection is activated.
type AnalyzeResult struct {
	TabName           string                  `json:"tab_name,omitempty"`
	Headers           []string                `json:"headers"`
	RowCount          int                     `json:"row_count"`
	EntityType        models.SheetType        `json:"entity_type"`
	Confidence        float64                 `json:"confidence"`
	Mappings          []mapping.ColumnMapping `json:"mappings"`
	Warnings          []string                `json:"warnings,omitempty"`
	SuggestedDefaults map[string]string       `json:"suggested_defaults,omitempty"`
	Sample            []map[string]string     `json:"sample"`
}

// TokenProvider resolves a usable OAuth token for a user; implemented
// by services.CredentialService.
type TokenProvider interface {
	ValidToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error)
	OAuthConfig() *oauth2.Config
}

// APIReaderFactory builds the authenticated reader for a token. It is a
// field so tests can substitute a fake reader.
type APIReaderFactory func(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (sheets.Reader, error)

// Orchestrator drives the end-to-end reconciliation loop across sheet
// connections: token resolution, fetch (with public-export fallback),
// canonical transformation, identity resolution, deal derivation and
// conflict-aware upsert.
type Orchestrator struct {
	Store      Store
	Creds      TokenProvider
	Suggester  mapping.Suggester
	Export     sheets.Reader
	APIFactory APIReaderFactory
	Identity   *IdentityResolver

	Workers int
	Backoff time.Duration

	// OnSlow, when set, fires once if a preview fetch exceeds the
	// threshold. The UI uses it for a "taking longer than expected"
	// signal; it never affects control flow.
	OnSlow        func()
	SlowThreshold time.Duration
}

func NewOrchestrator(store Store, creds TokenProvider, suggester mapping.Suggester, export sheets.Reader, workers int) *Orchestrator {
	return &Orchestrator{
		Store:     store,
		Creds:     creds,
		Suggester: suggester,
		Export:    export,
		APIFactory: func(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (sheets.Reader, error) {
			return sheets.NewAPIReader(ctx, conf, token)
		},
		Identity:      NewIdentityResolver(store),
		Workers:       workers,
		Backoff:       retryBackoff,
		SlowThreshold: 5 * time.Second,
	}
}

// resolveReader returns the fetch strategy for a user: authenticated
// with export fallback when a token is available, export-only
// otherwise. Credential problems degrade, they never fail the sync.
func (o *Orchestrator) resolveReader(ctx context.Context, userID uuid.UUID) sheets.Reader {
	token, err := o.Creds.ValidToken(ctx, userID)
	if err != nil {
		if sheets.CodeOf(err) == sheets.CodeRefreshFailed {
			slog.Warn("token refresh failed, using export path",
				"user_id", userID.String(), "error", err)
		} else {
			slog.Info("no google credential on file, using export path",
				"user_id", userID.String())
		}
		return &sheets.FallbackReader{Fallback: o.Export}
	}

	api, err := o.APIFactory(ctx, o.Creds.OAuthConfig(), token)
	if err != nil {
		slog.Warn("failed to build authenticated reader, using export path",
			"user_id", userID.String(), "error", err)
		return &sheets.FallbackReader{Fallback: o.Export}
	}
	return &sheets.FallbackReader{Primary: api, Fallback: o.Export}
}

// SyncConnection runs one connection's state machine. The returned
// error is non-nil only for persistence failures, which abort the
// surrounding batch.
func (o *Orchestrator) SyncConnection(ctx context.Context, conn *models.SheetConnection) (*Summary, error) {
	summary := &Summary{ConnectionID: conn.ID, SheetType: conn.SheetType, State: StateIdle}

	won, err := o.Store.BeginSync(ctx, conn.ID)
	if err != nil {
		return o.fail(summary, sheets.CodePersistence, "could not acquire sync slot: "+err.Error()), err
	}
	if !won {
		summary.State = StateFailed
		summary.FailureMessage = "sync already in progress"
		return summary, nil
	}
	defer func() {
		if err := o.Store.EndSync(context.WithoutCancel(ctx), conn.ID); err != nil {
			slog.Error("failed to clear sync flag", "connection_id", conn.ID.String(), "error", err)
		}
	}()

	summary.State = StateTokenResolving
	reader := o.resolveReader(ctx, conn.UserID)

	mappings, err := mapping.DecodeMappings(conn.Mappings)
	if err != nil {
		return o.fail(summary, sheets.CodeInvalidLocator, "connection has unreadable mappings: "+err.Error()), nil
	}
	if len(mappings) == 0 {
		return o.fail(summary, sheets.CodeInvalidLocator, "connection has no column mappings"), nil
	}

	summary.State = StateFetching
	loc := sheets.Locator{SpreadsheetID: conn.SpreadsheetID, GID: conn.SheetGID, TabName: conn.SheetName}
	var table *sheets.Table
	err = withRetry(ctx, o.Backoff, func() error {
		var ferr error
		table, ferr = reader.Fetch(ctx, loc, 0)
		return ferr
	})
	if err != nil {
		o.reportFailure(conn, "fetch", err)
		return o.fail(summary, sheets.CodeOf(err), err.Error()), nil
	}

	summary.State = StateTransforming
	for _, row := range table.Rows {
		rec, skip := mapping.ToCanonical(conn.SheetType, row, mappings)
		if skip != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Row: skip.Row, Reason: skip.Reason})
			continue
		}

		summary.State = StateReconciling
		refs, err := o.resolveRefs(ctx, conn, rec)
		if err != nil {
			return o.abort(ctx, summary, conn, err), err
		}

		outcome, entityID, err := o.Store.UpsertRecord(ctx, conn, rec, refs)
		if err != nil {
			return o.abort(ctx, summary, conn, err), err
		}
		switch outcome {
		case OutcomeInserted:
			summary.Imported++
		case OutcomeUpdated:
			summary.Updated++
		case OutcomeSkippedLocal:
			summary.SkippedLocal++
		}

		if conn.SheetType == models.SheetTypeAppointments && outcome != OutcomeSkippedLocal && ShouldDeriveDeal(rec.Appointment) {
			if err := o.Store.UpsertDerivedDeal(ctx, conn, entityID, rec.Appointment, refs); err != nil {
				return o.abort(ctx, summary, conn, err), err
			}
		}
		summary.State = StateTransforming
	}

	// Even a partial sync advances the watermark: one permanently bad
	// row must not block retrying the rest of the sheet every cycle.
	if err := o.Store.StampSynced(ctx, conn.ID, time.Now().UTC()); err != nil {
		slog.Error("failed to stamp last_synced_at", "connection_id", conn.ID.String(), "error", err)
	}

	summary.State = StateDone
	slog.Info("connection synced",
		"connection_id", conn.ID.String(),
		"sheet_type", string(conn.SheetType),
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped_local", summary.SkippedLocal,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (o *Orchestrator) resolveRefs(ctx context.Context, conn *models.SheetConnection, rec *mapping.Record) (RecordRefs, error) {
	var refs RecordRefs
	switch conn.SheetType {
	case models.SheetTypeAppointments:
		r := rec.Appointment
		leadID, err := o.Store.ResolveLead(ctx, conn.UserID, r.Name, r.Email, r.Phone)
		if err != nil {
			return refs, err
		}
		refs.LeadID = leadID
		if refs.SetterID, err = o.Identity.Resolve(ctx, r.Setter, "setter"); err != nil {
			return refs, err
		}
		if refs.CloserID, err = o.Identity.Resolve(ctx, r.Closer, "closer"); err != nil {
			return refs, err
		}
	case models.SheetTypeCalls:
		r := rec.Call
		if r.Email != "" {
			leadID, err := o.Store.ResolveLead(ctx, conn.UserID, r.Name, r.Email, r.Phone)
			if err != nil {
				return refs, err
			}
			refs.LeadID = leadID
		}
	case models.SheetTypeDeals:
		r := rec.Deal
		var err error
		if refs.SetterID, err = o.Identity.Resolve(ctx, r.Setter, "setter"); err != nil {
			return refs, err
		}
		if refs.CloserID, err = o.Identity.Resolve(ctx, r.Closer, "closer"); err != nil {
			return refs, err
		}
	}
	return refs, nil
}

func (o *Orchestrator) fail(summary *Summary, code sheets.Code, message string) *Summary {
	summary.State = StateFailed
	summary.FailureCode = code
	summary.FailureMessage = message
	return summary
}

// abort marks a persistence failure. No watermark stamp: a partial
// write must be retried as a whole.
func (o *Orchestrator) abort(ctx context.Context, summary *Summary, conn *models.SheetConnection, err error) *Summary {
	o.reportFailure(conn, "reconcile", err)
	return o.fail(summary, sheets.CodePersistence, err.Error())
}

func (o *Orchestrator) reportFailure(conn *models.SheetConnection, action string, err error) {
	slog.Error("connection sync failed",
		"connection_id", conn.ID.String(),
		"user_id", conn.UserID.String(),
		"action", action,
		"error", err.Error(),
	)
	sentry.CaptureException(fmt.Errorf("sync %s (connection %s): %w", action, conn.ID, err))
}

// SyncUser syncs all of one user's active connections.
func (o *Orchestrator) SyncUser(ctx context.Context, userID uuid.UUID) ([]*Summary, error) {
	conns, err := o.Store.ListActiveConnections(ctx, &userID)
	if err != nil {
		return nil, err
	}
	return o.syncBatch(ctx, conns), nil
}

// SyncAll syncs every active connection system-wide (scheduled batch).
func (o *Orchestrator) SyncAll(ctx context.Context) ([]*Summary, error) {
	conns, err := o.Store.ListActiveConnections(ctx, nil)
	if err != nil {
		return nil, err
	}
	return o.syncBatch(ctx, conns), nil
}

// syncBatch runs connections through a bounded worker pool. Connections
// are independent: one connection's failure never aborts the others. A
// persistence failure stops new connections from starting; in-flight
// syncs run to completion.
func (o *Orchestrator) syncBatch(ctx context.Context, conns []models.SheetConnection) []*Summary {
	if len(conns) == 0 {
		return nil
	}

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(conns) {
		workers = len(conns)
	}

	summaries := make([]*Summary, len(conns))
	jobs := make(chan int)
	stop := make(chan struct{})
	var stopOnce sync.Once
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				conn := conns[idx]
				summary, err := o.SyncConnection(ctx, &conn)
				summaries[idx] = summary
				if err != nil {
					// Persistence failure: stop starting new work.
					stopOnce.Do(func() { close(stop) })
				}
			}
		}()
	}

	for i := range conns {
		select {
		case <-stop:
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	for i := range summaries {
		if summaries[i] == nil {
			summaries[i] = &Summary{
				ConnectionID:   conns[i].ID,
				SheetType:      conns[i].SheetType,
				State:          StateFailed,
				FailureMessage: "batch aborted before this connection started",
			}
		}
	}
	return summaries
}

// Analyze fetches a bounded preview of a sheet (optionally several tabs
// by name) and proposes an entity type and mapping for the UI's review
// step. The suggestion port is advisory: when it fails, the rule-based
// fallback keeps analysis working.
func (o *Orchestrator) Analyze(ctx context.Context, userID uuid.UUID, rawLocator string, tabNames []string, hint models.SheetType) ([]*AnalyzeResult, error) {
	loc, err := sheets.ParseLocator(rawLocator)
	if err != nil {
		return nil, err
	}

	reader := o.resolveReader(ctx, userID)

	if len(tabNames) == 0 {
		result, err := o.analyzeTab(ctx, reader, loc, hint)
		if err != nil {
			return nil, err
		}
		return []*AnalyzeResult{result}, nil
	}

	results := make([]*AnalyzeResult, 0, len(tabNames))
	for _, tab := range tabNames {
		tabLoc := loc
		tabLoc.TabName = tab
		result, err := o.analyzeTab(ctx, reader, tabLoc, hint)
		if err != nil {
			// One unreadable tab should not hide the others.
			results = append(results, &AnalyzeResult{
				TabName:  tab,
				Warnings: []string{err.Error()},
			})
			continue
		}
		result.TabName = tab
		results = append(results, result)
	}
	return results, nil
}

func (o *Orchestrator) analyzeTab(ctx context.Context, reader sheets.Reader, loc sheets.Locator, hint models.SheetType) (*AnalyzeResult, error) {
	if o.OnSlow != nil {
		timer := time.AfterFunc(o.SlowThreshold, o.OnSlow)
		defer timer.Stop()
	}

	var table *sheets.Table
	err := withRetry(ctx, o.Backoff, func() error {
		var ferr error
		table, ferr = reader.Fetch(ctx, loc, previewRows)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	detected, detectedConf := mapping.DetectEntityType(table.Headers)

	sample := table.Rows
	if len(sample) > sampleRows {
		sample = sample[:sampleRows]
	}

	suggestion, err := o.Suggester.Suggest(ctx, hint, table.Headers, sample)
	if err != nil {
		slog.Warn("mapping suggestion unavailable, using rule fallback", "error", err)
		suggestion, _ = mapping.RuleSuggester{}.Suggest(ctx, hint, table.Headers, sample)
		suggestion.Warnings = append(suggestion.Warnings, "AI mapping suggestions unavailable; proposals are rule-based")
	}

	// The port's type guess is never trusted blind: cross-check against
	// the local header detector and keep whichever is more confident.
	entityType, confidence := suggestion.EntityType, suggestion.Confidence
	if hint == "" && detected != suggestion.EntityType {
		if detectedConf >= suggestion.Confidence {
			entityType, confidence = detected, detectedConf
			suggestion.Warnings = append(suggestion.Warnings,
				fmt.Sprintf("suggested type %q overridden by header detection (%q)", suggestion.EntityType, detected))
		} else {
			suggestion.Warnings = append(suggestion.Warnings,
				fmt.Sprintf("header detection disagrees: %q", detected))
		}
	}

	sampleMaps := make([]map[string]string, len(sample))
	for i, row := range sample {
		sampleMaps[i] = row.Values
	}

	return &AnalyzeResult{
		Headers:           table.Headers,
		RowCount:          len(table.Rows),
		EntityType:        entityType,
		Confidence:        confidence,
		Mappings:          suggestion.Mappings,
		Warnings:          suggestion.Warnings,
		SuggestedDefaults: suggestion.SuggestedDefaults,
		Sample:            sampleMaps,
	}, nil
}
