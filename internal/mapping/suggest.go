package mapping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
)

// Suggestion is a proposed header-to-field mapping for a sheet. It is
// advisory only: the user reviews and edits the mappings before a
// connection is activated, and the pipeline cross-checks EntityType
// against the local header detector.
type Suggestion struct {
	EntityType        models.SheetType  `json:"entity_type"`
	Confidence        float64           `json:"confidence"`
	Mappings          []ColumnMapping   `json:"mappings"`
	Warnings          []string          `json:"warnings,omitempty"`
	SuggestedDefaults map[string]string `json:"suggested_defaults,omitempty"`
}

// Suggester proposes a mapping from sheet headers and sample rows.
type Suggester interface {
	Suggest(ctx context.Context, hint models.SheetType, headers []string, sample []sheets.RawRow) (*Suggestion, error)
}

// --- OpenAISuggester ---

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type suggestionWire struct {
	EntityType        string            `json:"entity_type"`
	Confidence        json.RawMessage   `json:"confidence"`
	Mappings          []ColumnMapping   `json:"mappings"`
	Warnings          []string          `json:"warnings"`
	SuggestedDefaults map[string]string `json:"suggested_defaults"`
}

// OpenAISuggester asks an OpenAI-compatible chat completions endpoint to
// propose the mapping. Any failure is wrapped as
// MAPPING_SUGGESTION_UNAVAILABLE, which is fatal only to first-time
// analysis, never to the sync of an already-configured connection.
type OpenAISuggester struct {
	APIURL string
	APIKey string
	Model  string
	Client *http.Client
}

func NewOpenAISuggester(apiURL, apiKey, model string, timeout time.Duration) *OpenAISuggester {
	return &OpenAISuggester{
		APIURL: apiURL,
		APIKey: apiKey,
		Model:  model,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *OpenAISuggester) Suggest(ctx context.Context, hint models.SheetType, headers []string, sample []sheets.RawRow) (*Suggestion, error) {
	if s.APIKey == "" {
		return nil, sheets.NewError(sheets.CodeSuggestionUnavailable, "suggestion service not configured")
	}

	prompt := buildPrompt(hint, headers, sample)
	body, err := json.Marshal(openAIRequest{
		Model: s.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: "You map spreadsheet columns for a sales pipeline CRM and return only valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, sheets.WrapError(sheets.CodeSuggestionUnavailable, "suggestion call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, sheets.NewError(sheets.CodeSuggestionUnavailable,
			fmt.Sprintf("suggestion API error (status %d): %s", resp.StatusCode, string(respBody)))
	}

	var oaiResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, sheets.WrapError(sheets.CodeSuggestionUnavailable, "failed to decode response", err)
	}
	if len(oaiResp.Choices) == 0 {
		return nil, sheets.NewError(sheets.CodeSuggestionUnavailable, "no response from suggestion API")
	}

	content := cleanJSONContent(oaiResp.Choices[0].Message.Content)

	var wire suggestionWire
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, sheets.WrapError(sheets.CodeSuggestionUnavailable, "unparseable suggestion payload", err)
	}

	suggestion := &Suggestion{
		EntityType:        models.SheetType(wire.EntityType),
		Confidence:        NormalizeConfidence(wire.Confidence),
		Mappings:          wire.Mappings,
		Warnings:          wire.Warnings,
		SuggestedDefaults: wire.SuggestedDefaults,
	}
	if !models.ValidSheetType(suggestion.EntityType) {
		suggestion.EntityType = hint
		suggestion.Warnings = append(suggestion.Warnings, "suggestion returned an unknown entity type; using hint")
	}
	return suggestion, nil
}

func buildPrompt(hint models.SheetType, headers []string, sample []sheets.RawRow) string {
	var b strings.Builder
	b.WriteString("Map these spreadsheet columns to canonical sales-pipeline fields.\n")
	if hint != "" {
		fmt.Fprintf(&b, "Likely entity type: %s.\n", hint)
	}
	fmt.Fprintf(&b, "Headers: %s\n", strings.Join(headers, ", "))
	b.WriteString("Sample rows:\n")
	for i, row := range sample {
		if i >= 3 {
			break
		}
		cells := make([]string, 0, len(headers))
		for _, h := range headers {
			cells = append(cells, row.Get(h))
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(cells, " | "))
	}
	b.WriteString(`Return JSON: {"entity_type": one of [team,leads,appointments,calls,deals], ` +
		`"confidence": 0-100, "mappings": [{"source_column", "target_field", "confidence", ` +
		`"transformation" (trim|lowercaseTrim|cleanPhone|parseCurrency|skipIfPlaceholder|combineDatetime), ` +
		`"custom_key" (only for columns with no canonical field)}], "warnings": [], "suggested_defaults": {}}. ` +
		`Canonical fields: name, full_name, email, phone, source, status, notes, scheduled_date, ` +
		`scheduled_time, scheduled_at, setter, closer, call_outcome, revenue, cash_collected, ` +
		`payment_platform, role. Return ONLY valid JSON.`)
	return b.String()
}

func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// --- RuleSuggester ---

// canonicalTargets maps normalized header names to canonical fields.
var canonicalTargets = map[string]string{
	"name": "name", "full name": "full_name", "fullname": "full_name",
	"first name": "name", "client": "name", "client name": "name",
	"lead name": "name", "prospect": "name",
	"email": "email", "email address": "email",
	"phone": "phone", "phone number": "phone", "mobile": "phone",
	"source": "source", "lead source": "source", "utm source": "source",
	"status": "status", "result": "call_outcome", "outcome": "call_outcome",
	"call outcome": "call_outcome", "call result": "call_outcome",
	"notes": "notes", "comments": "notes",
	"date": "scheduled_date", "call date": "scheduled_date",
	"appointment date": "scheduled_date", "close date": "scheduled_date",
	"time": "scheduled_time", "call time": "scheduled_time",
	"setter": "setter", "set by": "setter",
	"closer": "closer", "closed by": "closer", "sales rep": "closer",
	"revenue": "revenue", "deal value": "revenue", "amount": "revenue",
	"cash collected": "cash_collected", "cash": "cash_collected",
	"payment platform": "payment_platform", "payment processor": "payment_platform",
	"role": "role",
}

// transforms selected for specific target fields by the rule engine.
var targetTransforms = map[string]string{
	"phone":          TransformCleanPhone,
	"email":          TransformLowercaseTrim,
	"revenue":        TransformParseCurrency,
	"cash_collected": TransformParseCurrency,
	"status":         TransformSkipPlaceholder,
}

// RuleSuggester is the offline fallback: exact or fuzzy header-name
// matches against the canonical field table. It keeps analysis working
// when the AI port is unreachable.
type RuleSuggester struct{}

func (RuleSuggester) Suggest(_ context.Context, hint models.SheetType, headers []string, _ []sheets.RawRow) (*Suggestion, error) {
	detected, confidence := DetectEntityType(headers)
	entityType := detected
	if hint != "" {
		entityType = hint
	}

	suggestion := &Suggestion{EntityType: entityType, Confidence: confidence}
	for _, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		target, exact := canonicalTargets[norm]
		conf := 80.0
		if !exact {
			for key, t := range canonicalTargets {
				if len(key) > 3 && strings.Contains(norm, key) {
					target, conf = t, 60.0
					break
				}
			}
		}
		m := ColumnMapping{SourceColumn: h, Confidence: conf}
		if target == "" {
			m.CustomKey = slugKey(h)
			m.Confidence = 30
			suggestion.Warnings = append(suggestion.Warnings, "no canonical field for column "+h)
		} else {
			m.TargetField = target
			m.Transformation = targetTransforms[target]
		}
		suggestion.Mappings = append(suggestion.Mappings, m)
	}
	return suggestion, nil
}

func slugKey(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
