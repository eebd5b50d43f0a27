package intent

import (
	"strings"

	"github.com/spigell/lead-scorer/internal/model"
)

// Points awarded per intent.
const (
	PointsHigh   = 50
	PointsMedium = 30
	PointsLow    = 10
)

var (
	highSignals   = []string{"likely", "interested", "ready", "buy"}
	mediumSignals = []string{"consider", "maybe", "could", "possible"}
)

// MapText turns free model output into an intent. Explicit labels win over
// signal words; ok is false when nothing matches.
func MapText(text string) (points int, intent model.Intent, ok bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "high"):
		return PointsHigh, model.IntentHigh, true
	case strings.Contains(t, "medium"):
		return PointsMedium, model.IntentMedium, true
	case strings.Contains(t, "low"):
		return PointsLow, model.IntentLow, true
	case containsAny(t, highSignals):
		return PointsHigh, model.IntentHigh, true
	case containsAny(t, mediumSignals):
		return PointsMedium, model.IntentMedium, true
	default:
		return 0, "", false
	}
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
