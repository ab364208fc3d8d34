package mapping

import (
	"testing"
	"time"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/pipeboard/pipeboard/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(number int, values map[string]string) sheets.RawRow {
	return sheets.RawRow{Number: number, Values: values}
}

func TestToCanonical_Lead(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Full Name", TargetField: "name"},
		{SourceColumn: "Email Address", TargetField: "email", Transformation: TransformLowercaseTrim},
		{SourceColumn: "Phone", TargetField: "phone", Transformation: TransformCleanPhone},
		{SourceColumn: "Lead Status", TargetField: "status"},
	}

	rec, skip := ToCanonical(models.SheetTypeLeads, row(2, map[string]string{
		"Full Name":     "Ada Lovelace",
		"Email Address": " Ada@X.com ",
		"Phone":         "(555) 123-4567",
		"Lead Status":   "Qualified",
	}), mappings)

	require.Nil(t, skip)
	require.NotNil(t, rec.Lead)
	assert.Equal(t, models.SheetTypeLeads, rec.EntityType)
	assert.Equal(t, 2, rec.RowNumber)
	assert.Equal(t, "Ada Lovelace", rec.Lead.Name)
	assert.Equal(t, "ada@x.com", rec.Lead.Email)
	assert.Equal(t, "5551234567", rec.Lead.Phone)
	assert.Equal(t, "qualified", rec.Lead.Status)
}

func TestToCanonical_RequiredFieldSkip(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "Email", TargetField: "email"},
	}

	rec, skip := ToCanonical(models.SheetTypeLeads, row(4, map[string]string{
		"Name": "", "Email": "",
	}), mappings)

	assert.Nil(t, rec)
	require.NotNil(t, skip)
	assert.Equal(t, 4, skip.Row)
	assert.Contains(t, skip.Reason, "missing required field")
}

func TestToCanonical_TeamRequiresEmail(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "Email", TargetField: "email"},
	}

	// A name alone is enough for a lead but not for a team member.
	rec, skip := ToCanonical(models.SheetTypeTeam, row(3, map[string]string{
		"Name": "Grace", "Email": "",
	}), mappings)
	assert.Nil(t, rec)
	require.NotNil(t, skip)
	assert.Contains(t, skip.Reason, "email")
}

func TestToCanonical_AppointmentSplitDatetime(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "Date", TargetField: "scheduled_date"},
		{SourceColumn: "Time", TargetField: "scheduled_time"},
		{SourceColumn: "Outcome", TargetField: "call_outcome"},
		{SourceColumn: "Revenue", TargetField: "revenue", Transformation: TransformParseCurrency},
		{SourceColumn: "Setter", TargetField: "setter"},
	}

	rec, skip := ToCanonical(models.SheetTypeAppointments, row(2, map[string]string{
		"Name":    "Ada",
		"Date":    "2025-06-01",
		"Time":    "2:30 PM",
		"Outcome": "Closed Won",
		"Revenue": "$5,000",
		"Setter":  " Grace Hopper ",
	}), mappings)

	require.Nil(t, skip)
	require.NotNil(t, rec.Appointment)
	require.NotNil(t, rec.Appointment.ScheduledAt)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), *rec.Appointment.ScheduledAt)
	assert.Equal(t, models.CallOutcomeClosedWon, rec.Appointment.CallOutcome)
	assert.Equal(t, 5000.0, rec.Appointment.Revenue)
	assert.Equal(t, "Grace Hopper", rec.Appointment.Setter)
}

func TestToCanonical_AppointmentSingleDatetimeColumn(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "When", TargetField: "scheduled_at"},
	}

	rec, skip := ToCanonical(models.SheetTypeAppointments, row(2, map[string]string{
		"Name": "Ada", "When": "2025-06-01 09:00:00",
	}), mappings)

	require.Nil(t, skip)
	require.NotNil(t, rec.Appointment.ScheduledAt)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), *rec.Appointment.ScheduledAt)
}

func TestToCanonical_CustomFields(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
		{SourceColumn: "Favorite Color", TargetField: "custom"},
		{SourceColumn: "UTM Source", CustomKey: "utm_source", TargetField: "custom"},
		{SourceColumn: "Empty Col", TargetField: "custom"},
	}

	rec, skip := ToCanonical(models.SheetTypeLeads, row(2, map[string]string{
		"Name": "Ada", "Favorite Color": "green", "UTM Source": "newsletter", "Empty Col": "",
	}), mappings)

	require.Nil(t, skip)
	assert.Equal(t, "green", rec.Custom["Favorite Color"])
	assert.Equal(t, "newsletter", rec.Custom["utm_source"])
	// Empty values never enter the custom bag.
	_, present := rec.Custom["Empty Col"]
	assert.False(t, present)
}

func TestToCanonical_UnmappedColumnsIgnored(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Name", TargetField: "name"},
	}

	rec, skip := ToCanonical(models.SheetTypeLeads, row(2, map[string]string{
		"Name": "Ada", "Internal Notes": "should not appear",
	}), mappings)

	require.Nil(t, skip)
	assert.Empty(t, rec.Custom)
	assert.Equal(t, "", rec.Lead.Notes)
}

func TestToCanonical_DealDerivationInputs(t *testing.T) {
	mappings := []ColumnMapping{
		{SourceColumn: "Client", TargetField: "name"},
		{SourceColumn: "Result", TargetField: "call_outcome"},
		{SourceColumn: "Revenue", TargetField: "revenue"},
	}

	withRevenue, skip := ToCanonical(models.SheetTypeAppointments, row(2, map[string]string{
		"Client": "Ada", "Result": "WON!", "Revenue": "1200",
	}), mappings)
	require.Nil(t, skip)
	assert.Equal(t, models.CallOutcomeClosedWon, withRevenue.Appointment.CallOutcome)
	assert.Equal(t, 1200.0, withRevenue.Appointment.Revenue)

	noRevenue, skip := ToCanonical(models.SheetTypeAppointments, row(3, map[string]string{
		"Client": "Bob", "Result": "won", "Revenue": "",
	}), mappings)
	require.Nil(t, skip)
	assert.Equal(t, models.CallOutcomeClosedWon, noRevenue.Appointment.CallOutcome)
	assert.Zero(t, noRevenue.Appointment.Revenue)
}
