package intent

import (
	"strings"

	"github.com/spigell/lead-scorer/internal/model"
)

var (
	stubDecisionKeywords   = []string{"ceo", "cto", "founder", "head", "director", "vp", "vice president"}
	stubInfluencerKeywords = []string{"lead", "manager", "senior", "principal", "marketing", "executive"}
)

// Fallback classifies a lead from its own text without any model call.
// It is deterministic: equal inputs give equal outputs.
func Fallback(lead model.Lead, offer model.Offer) Assessment {
	text := strings.ToLower(strings.Join([]string{
		lead.Role,
		lead.Industry,
		lead.LinkedInBio,
		strings.Join(offer.IdealUseCases, " "),
	}, " "))

	switch {
	case containsAny(text, stubDecisionKeywords):
		return Assessment{
			Points:    PointsHigh,
			Intent:    model.IntentHigh,
			Reasoning: "Role and context indicate a decision maker with high intent (fallback).",
		}
	case containsAny(text, stubInfluencerKeywords):
		return Assessment{
			Points:    PointsMedium,
			Intent:    model.IntentMedium,
			Reasoning: "Role and context indicate an influencer; moderate intent (fallback).",
		}
	default:
		return Assessment{
			Points:    PointsLow,
			Intent:    model.IntentLow,
			Reasoning: "No strong buying signals found (fallback).",
		}
	}
}
