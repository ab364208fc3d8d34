package syncer

import (
	"github.com/pipeboard/pipeboard/internal/mapping"
	"github.com/pipeboard/pipeboard/internal/models"
)

// ShouldDeriveDeal applies the closed-call rule: an appointment whose
// normalized call outcome is the won terminal state and which carries a
// positive revenue or cash-collected amount produces exactly one deal.
// The rule only fires for appointments sheets; standalone deals sheets
// carry their own rows.
func ShouldDeriveDeal(rec *mapping.AppointmentRecord) bool {
	if rec == nil {
		return false
	}
	if rec.CallOutcome != models.CallOutcomeClosedWon {
		return false
	}
	return rec.Revenue > 0 || rec.CashCollected > 0
}
