package mapping

import (
	"testing"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDetectEntityType(t *testing.T) {
	cases := []struct {
		headers []string
		want    models.SheetType
	}{
		{[]string{"Client Name", "Setter", "Closer", "Call Outcome", "Cash Collected"}, models.SheetTypeAppointments},
		{[]string{"Lead Name", "Email", "Phone", "Lead Source", "UTM Campaign"}, models.SheetTypeLeads},
		{[]string{"Name", "Dial Count", "Call Duration", "Connected"}, models.SheetTypeCalls},
		{[]string{"Deal Name", "Contract Value", "MRR", "Payment Plan"}, models.SheetTypeDeals},
		{[]string{"Member Name", "Role", "Commission Rate", "Team"}, models.SheetTypeTeam},
	}

	for _, tc := range cases {
		got, confidence := DetectEntityType(tc.headers)
		assert.Equal(t, tc.want, got, "headers %v", tc.headers)
		assert.Greater(t, confidence, 50.0, "headers %v", tc.headers)
	}
}

func TestDetectEntityType_NoSignal(t *testing.T) {
	got, confidence := DetectEntityType([]string{"Column A", "Column B"})
	assert.Equal(t, models.SheetTypeLeads, got)
	assert.Zero(t, confidence)
}

func TestDetectEntityType_ConfidenceCapped(t *testing.T) {
	_, confidence := DetectEntityType([]string{"Setter", "Closer", "Appointment", "Show", "Cash Collected", "Call Outcome"})
	assert.LessOrEqual(t, confidence, 95.0)
}
