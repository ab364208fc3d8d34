package mapping

import (
	"testing"

	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAppointmentStatus(t *testing.T) {
	// Every spelling of a no-show lands on the same term.
	for _, v := range []string{"No Show", "no-show", "DNS", "did not show", "NO SHOW!!"} {
		assert.Equal(t, models.AppointmentNoShow, NormalizeAppointmentStatus(v), "input %q", v)
	}

	assert.Equal(t, models.AppointmentCompleted, NormalizeAppointmentStatus("Showed"))
	assert.Equal(t, models.AppointmentCompleted, NormalizeAppointmentStatus("attended"))
	assert.Equal(t, models.AppointmentRescheduled, NormalizeAppointmentStatus("Rescheduled to next week"))
	assert.Equal(t, models.AppointmentCancelled, NormalizeAppointmentStatus("Cancelled"))
	assert.Equal(t, models.AppointmentScheduled, NormalizeAppointmentStatus("Booked"))
	assert.Equal(t, models.AppointmentScheduled, NormalizeAppointmentStatus(""))
	assert.Equal(t, models.AppointmentScheduled, NormalizeAppointmentStatus("???"))
}

func TestNormalizeCallOutcome(t *testing.T) {
	for _, v := range []string{"Closed", "won", "WON!", "closed won", "Sold"} {
		assert.Equal(t, models.CallOutcomeClosedWon, NormalizeCallOutcome(v), "input %q", v)
	}

	// Multi-token negations win over their single-token fallbacks.
	for _, v := range []string{"not closed", "No Close", "no sale", "Lost", "declined"} {
		assert.Equal(t, models.CallOutcomeNotClosed, NormalizeCallOutcome(v), "input %q", v)
	}

	assert.Equal(t, models.CallOutcomeFollowUp, NormalizeCallOutcome("Follow up"))
	assert.Equal(t, "", NormalizeCallOutcome(""))
	assert.Equal(t, "", NormalizeCallOutcome("pending"))
}

func TestNormalizeLeadStatus(t *testing.T) {
	assert.Equal(t, "lost", NormalizeLeadStatus("Unqualified"))
	assert.Equal(t, "converted", NormalizeLeadStatus("Closed Won"))
	assert.Equal(t, "booked", NormalizeLeadStatus("Appointment booked"))
	assert.Equal(t, "qualified", NormalizeLeadStatus("Qualified"))
	assert.Equal(t, "contacted", NormalizeLeadStatus("Contacted"))
	assert.Equal(t, "new", NormalizeLeadStatus(""))
	assert.Equal(t, "new", NormalizeLeadStatus("whatever"))
}

func TestNormalizeDealStatus(t *testing.T) {
	assert.Equal(t, models.DealLost, NormalizeDealStatus("Refunded"))
	assert.Equal(t, models.DealWon, NormalizeDealStatus("Paid in full"))
	assert.Equal(t, models.DealPending, NormalizeDealStatus(""))
}

func TestNormalizeTeamStatus(t *testing.T) {
	assert.Equal(t, "inactive", NormalizeTeamStatus("Former employee"))
	// "inactive" must not be swallowed by the "active" rule.
	assert.Equal(t, "inactive", NormalizeTeamStatus("Inactive"))
	assert.Equal(t, "active", NormalizeTeamStatus("Active"))
	assert.Equal(t, "active", NormalizeTeamStatus(""))
}
