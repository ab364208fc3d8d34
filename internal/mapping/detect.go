package mapping

import (
	"strings"

	"github.com/pipeboard/pipeboard/internal/models"
)

// keyword weights per entity type. Specific vocabulary scores 3,
// generic CRM vocabulary scores 1 so it only breaks ties.
var detectKeywords = map[models.SheetType]map[string]int{
	models.SheetTypeTeam: {
		"role": 3, "member": 3, "rep": 3, "commission": 3, "team": 3,
		"hire": 2, "email": 1, "name": 1,
	},
	models.SheetTypeLeads: {
		"lead": 3, "source": 3, "funnel": 3, "opt": 2, "utm": 2,
		"email": 1, "phone": 1, "name": 1, "status": 1,
	},
	models.SheetTypeAppointments: {
		"appointment": 3, "setter": 3, "closer": 3, "show": 3,
		"cash collected": 3, "call outcome": 3, "booked": 2,
		"revenue": 2, "date": 1, "time": 1, "status": 1,
	},
	models.SheetTypeCalls: {
		"call": 3, "dial": 3, "duration": 3, "connected": 3,
		"outcome": 2, "phone": 1, "date": 1,
	},
	models.SheetTypeDeals: {
		"deal": 3, "contract": 3, "mrr": 3, "payment": 3, "plan": 2,
		"amount": 2, "revenue": 2, "closed": 2, "cash": 1,
	},
}

// DetectEntityType classifies headers into one of the five canonical
// entity types with a 0-100 confidence. It runs as a cross-check on the
// suggestion port's guess and as the fallback when the port is down.
func DetectEntityType(headers []string) (models.SheetType, float64) {
	joined := strings.ToLower(strings.Join(headers, " | "))

	scores := make(map[models.SheetType]int, len(detectKeywords))
	for entityType, keywords := range detectKeywords {
		for kw, weight := range keywords {
			if strings.Contains(joined, kw) {
				scores[entityType] += weight
			}
		}
	}

	var best models.SheetType
	bestScore, secondScore := 0, 0
	for _, t := range []models.SheetType{
		models.SheetTypeAppointments, models.SheetTypeDeals,
		models.SheetTypeCalls, models.SheetTypeLeads, models.SheetTypeTeam,
	} {
		s := scores[t]
		if s > bestScore {
			secondScore = bestScore
			bestScore = s
			best = t
		} else if s > secondScore {
			secondScore = s
		}
	}

	if bestScore == 0 {
		return models.SheetTypeLeads, 0
	}

	// Margin over the runner-up drives confidence.
	confidence := float64(bestScore) * 100 / float64(bestScore+secondScore)
	if confidence > 95 {
		confidence = 95
	}
	return best, confidence
}
