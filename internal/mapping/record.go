package mapping

import (
	"fmt"
	"strings"
	"time"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
)

// Record is the typed projection of one raw row: exactly one of the
// entity payloads is set, matching EntityType, plus an open bag for
// columns mapped to custom keys.
type Record struct {
	EntityType models.SheetType
	RowNumber  int
	Custom     map[string]string

	Team        *TeamMemberRecord
	Lead        *LeadRecord
	Appointment *AppointmentRecord
	Call        *CallRecord
	Deal        *DealRecord
}

type TeamMemberRecord struct {
	Name   string
	Email  string
	Phone  string
	Role   string
	Status string
}

type LeadRecord struct {
	Name   string
	Email  string
	Phone  string
	Source string
	Status string
	Notes  string
}

type AppointmentRecord struct {
	Name            string
	Email           string
	Phone           string
	ScheduledAt     *time.Time
	Status          string
	CallOutcome     string
	Setter          string
	Closer          string
	Revenue         float64
	CashCollected   float64
	PaymentPlatform string
	Notes           string
}

type CallRecord struct {
	Name        string
	Email       string
	Phone       string
	ScheduledAt *time.Time
	Outcome     string
	Notes       string
}

type DealRecord struct {
	Name            string
	Email           string
	Revenue         float64
	CashCollected   float64
	PaymentPlatform string
	Status          string
	Setter          string
	Closer          string
	ClosedAt        *time.Time
}

// Skip explains why a row was dropped without failing the batch.
type Skip struct {
	Row    int
	Reason string
}

func (s *Skip) String() string {
	return fmt.Sprintf("row %d: %s", s.Row, s.Reason)
}

// ToCanonical applies the stored mapping to one raw row. A row that
// fails its entity's required-field rule returns a Skip, never an
// error: one bad row must not abort the batch.
func ToCanonical(entityType models.SheetType, row sheets.RawRow, mappings []ColumnMapping) (*Record, *Skip) {
	fields := make(map[string]string)
	custom := make(map[string]string)
	var dateCol, timeCol string

	for _, m := range mappings {
		if m.SourceColumn == "" {
			continue
		}
		value := applyTransformation(m.Transformation, row.Get(m.SourceColumn))

		target := strings.TrimSpace(m.TargetField)
		if m.CustomKey != "" || target == "custom" || target == "" {
			key := m.CustomKey
			if key == "" {
				key = m.SourceColumn
			}
			if value != "" {
				custom[key] = value
			}
			continue
		}

		// Split date/time pairs are buffered and combined below.
		switch target {
		case "scheduled_date":
			dateCol = value
			continue
		case "scheduled_time":
			timeCol = value
			continue
		}
		fields[target] = value
	}

	rec := &Record{EntityType: entityType, RowNumber: row.Number}
	if len(custom) > 0 {
		rec.Custom = custom
	}

	var scheduledAt *time.Time
	if dateCol != "" {
		if t, ok := CombineDatetime(dateCol, timeCol); ok {
			scheduledAt = &t
		}
	} else if raw := fields["scheduled_at"]; raw != "" {
		if t, ok := ParseDate(raw); ok {
			scheduledAt = &t
		}
	}

	name := firstNonEmpty(fields["name"], fields["full_name"])
	email := strings.TrimSpace(fields["email"])

	switch entityType {
	case models.SheetTypeTeam:
		if email == "" {
			return nil, &Skip{Row: row.Number, Reason: "missing required field: email"}
		}
		rec.Team = &TeamMemberRecord{
			Name:   name,
			Email:  email,
			Phone:  fields["phone"],
			Role:   fields["role"],
			Status: NormalizeTeamStatus(fields["status"]),
		}

	case models.SheetTypeLeads:
		if name == "" && email == "" {
			return nil, &Skip{Row: row.Number, Reason: "missing required field: name or email"}
		}
		rec.Lead = &LeadRecord{
			Name:   name,
			Email:  email,
			Phone:  fields["phone"],
			Source: fields["source"],
			Status: NormalizeLeadStatus(fields["status"]),
			Notes:  fields["notes"],
		}

	case models.SheetTypeAppointments:
		if name == "" && email == "" {
			return nil, &Skip{Row: row.Number, Reason: "missing required field: name or email"}
		}
		rec.Appointment = &AppointmentRecord{
			Name:            name,
			Email:           email,
			Phone:           fields["phone"],
			ScheduledAt:     scheduledAt,
			Status:          NormalizeAppointmentStatus(fields["status"]),
			CallOutcome:     NormalizeCallOutcome(firstNonEmpty(fields["call_outcome"], fields["call_status"])),
			Setter:          strings.TrimSpace(fields["setter"]),
			Closer:          strings.TrimSpace(fields["closer"]),
			Revenue:         ParseCurrency(fields["revenue"]),
			CashCollected:   ParseCurrency(fields["cash_collected"]),
			PaymentPlatform: fields["payment_platform"],
			Notes:           fields["notes"],
		}

	case models.SheetTypeCalls:
		if name == "" && email == "" {
			return nil, &Skip{Row: row.Number, Reason: "missing required field: name or email"}
		}
		rec.Call = &CallRecord{
			Name:        name,
			Email:       email,
			Phone:       fields["phone"],
			ScheduledAt: scheduledAt,
			Outcome:     NormalizeCallOutcome(firstNonEmpty(fields["outcome"], fields["call_outcome"], fields["status"])),
			Notes:       fields["notes"],
		}

	case models.SheetTypeDeals:
		if name == "" && email == "" {
			return nil, &Skip{Row: row.Number, Reason: "missing required field: name or email"}
		}
		rec.Deal = &DealRecord{
			Name:            name,
			Email:           email,
			Revenue:         ParseCurrency(fields["revenue"]),
			CashCollected:   ParseCurrency(fields["cash_collected"]),
			PaymentPlatform: fields["payment_platform"],
			Status:          NormalizeDealStatus(fields["status"]),
			Setter:          strings.TrimSpace(fields["setter"]),
			Closer:          strings.TrimSpace(fields["closer"]),
			ClosedAt:        scheduledAt,
		}

	default:
		return nil, &Skip{Row: row.Number, Reason: "unknown entity type " + string(entityType)}
	}

	return rec, nil
}
