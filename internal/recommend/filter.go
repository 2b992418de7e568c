package recommend

import (
	"strings"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/models"
)

func normalizeGym(gym string) string {
	return strings.ToLower(strings.TrimSpace(gym))
}

// FilterByGym keeps the items whose gym equals requesterGym, ignoring case and
// surrounding whitespace. An empty gym on either side never matches. With the
// prefer policy the input is returned unchanged when nothing matches; with the
// strict policy the result may be empty.
func FilterByGym(items []models.Recommendation, requesterGym, policy string) []models.Recommendation {
	target := normalizeGym(requesterGym)

	matches := make([]models.Recommendation, 0, len(items))
	if target != "" {
		for _, item := range items {
			if normalizeGym(item.GymName) == target {
				matches = append(matches, item)
			}
		}
	}

	if len(matches) == 0 && policy != config.GymPolicyStrict {
		return items
	}
	return matches
}
