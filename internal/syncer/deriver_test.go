package syncer

import (
	"testing"

	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestShouldDeriveDeal(t *testing.T) {
	assert.True(t, ShouldDeriveDeal(&mapping.AppointmentRecord{
		CallOutcome: models.CallOutcomeClosedWon, Revenue: 5000,
	}))
	assert.True(t, ShouldDeriveDeal(&mapping.AppointmentRecord{
		CallOutcome: models.CallOutcomeClosedWon, CashCollected: 100,
	}))

	// Closed-won without money is a no-op.
	assert.False(t, ShouldDeriveDeal(&mapping.AppointmentRecord{
		CallOutcome: models.CallOutcomeClosedWon,
	}))
	// Money without a won outcome is a no-op.
	assert.False(t, ShouldDeriveDeal(&mapping.AppointmentRecord{
		CallOutcome: models.CallOutcomeNotClosed, Revenue: 5000,
	}))
	assert.False(t, ShouldDeriveDeal(&mapping.AppointmentRecord{Revenue: 5000}))
	assert.False(t, ShouldDeriveDeal(nil))
}
