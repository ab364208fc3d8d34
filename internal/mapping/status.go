package mapping

import (
	"strings"

	"github.com/pipeboard/pipeboard/internal/models"
)

// statusRule maps a free-text status to a closed vocabulary term when
// every token is contained in the lowercased input. Rules are checked in
// order, so multi-token rules must come before their single-token
// fallbacks ("no show" before "show", "not closed" before "closed").
type statusRule struct {
	tokens []string
	result string
}

func normalizeStatus(value, fallback string, rules []statusRule) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return fallback
	}
	for _, rule := range rules {
		matched := true
		for _, tok := range rule.tokens {
			if !strings.Contains(v, tok) {
				matched = false
				break
			}
		}
		if matched {
			return rule.result
		}
	}
	return fallback
}

var appointmentStatusRules = []statusRule{
	{[]string{"no", "show"}, models.AppointmentNoShow},
	{[]string{"dns"}, models.AppointmentNoShow},
	{[]string{"didn't show"}, models.AppointmentNoShow},
	{[]string{"resched"}, models.AppointmentRescheduled},
	{[]string{"cancel"}, models.AppointmentCancelled},
	{[]string{"showed"}, models.AppointmentCompleted},
	{[]string{"show"}, models.AppointmentCompleted},
	{[]string{"attended"}, models.AppointmentCompleted},
	{[]string{"complete"}, models.AppointmentCompleted},
	{[]string{"sat"}, models.AppointmentCompleted},
	{[]string{"won"}, models.AppointmentCompleted},
	{[]string{"closed"}, models.AppointmentCompleted},
	{[]string{"book"}, models.AppointmentScheduled},
	{[]string{"scheduled"}, models.AppointmentScheduled},
	{[]string{"confirm"}, models.AppointmentScheduled},
}

// NormalizeAppointmentStatus maps free-text appointment statuses to the
// closed vocabulary. Unrecognized values stay scheduled.
func NormalizeAppointmentStatus(value string) string {
	return normalizeStatus(value, models.AppointmentScheduled, appointmentStatusRules)
}

var callOutcomeRules = []statusRule{
	{[]string{"no", "close"}, models.CallOutcomeNotClosed},
	{[]string{"not", "closed"}, models.CallOutcomeNotClosed},
	{[]string{"no", "sale"}, models.CallOutcomeNotClosed},
	{[]string{"lost"}, models.CallOutcomeNotClosed},
	{[]string{"declin"}, models.CallOutcomeNotClosed},
	{[]string{"follow"}, models.CallOutcomeFollowUp},
	{[]string{"won"}, models.CallOutcomeClosedWon},
	{[]string{"closed"}, models.CallOutcomeClosedWon},
	{[]string{"close"}, models.CallOutcomeClosedWon},
	{[]string{"sold"}, models.CallOutcomeClosedWon},
	{[]string{"deal"}, models.CallOutcomeClosedWon},
}

// NormalizeCallOutcome maps a free-text call result to the terminal
// vocabulary. closed_won is the state that triggers deal derivation.
func NormalizeCallOutcome(value string) string {
	return normalizeStatus(value, "", callOutcomeRules)
}

var leadStatusRules = []statusRule{
	{[]string{"unqualif"}, "lost"},
	{[]string{"disqualif"}, "lost"},
	{[]string{"dead"}, "lost"},
	{[]string{"lost"}, "lost"},
	{[]string{"converted"}, "converted"},
	{[]string{"won"}, "converted"},
	{[]string{"closed"}, "converted"},
	{[]string{"book"}, "booked"},
	{[]string{"appointment"}, "booked"},
	{[]string{"qualif"}, "qualified"},
	{[]string{"contact"}, "contacted"},
	{[]string{"new"}, "new"},
}

func NormalizeLeadStatus(value string) string {
	return normalizeStatus(value, "new", leadStatusRules)
}

var dealStatusRules = []statusRule{
	{[]string{"refund"}, models.DealLost},
	{[]string{"lost"}, models.DealLost},
	{[]string{"cancel"}, models.DealLost},
	{[]string{"won"}, models.DealWon},
	{[]string{"closed"}, models.DealWon},
	{[]string{"paid"}, models.DealWon},
	{[]string{"complete"}, models.DealWon},
}

func NormalizeDealStatus(value string) string {
	return normalizeStatus(value, models.DealPending, dealStatusRules)
}

var teamStatusRules = []statusRule{
	{[]string{"inactive"}, "inactive"},
	{[]string{"former"}, "inactive"},
	{[]string{"left"}, "inactive"},
	{[]string{"terminated"}, "inactive"},
	{[]string{"active"}, "active"},
}

func NormalizeTeamStatus(value string) string {
	return normalizeStatus(value, "active", teamStatusRules)
}
