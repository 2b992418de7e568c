package recommend

import "fitpair-backend/internal/models"

// Fallback turns the candidate pool into recommendations with a gym based
// reason, one per candidate in pool order
func Fallback(pool []*models.UserProfile) []models.Recommendation {
	items := make([]models.Recommendation, 0, len(pool))
	for _, u := range pool {
		item := models.Recommendation{
			Email:    u.Email,
			Username: u.Username,
			Age:      u.Age,
			GymName:  u.Gym(),
			Reason:   "This user might be a good match because they go to " + u.Gym(),
			UserID:   u.UserID,
		}
		if u.Bio != nil {
			item.Bio = *u.Bio
		}
		items = append(items, item)
	}
	return items
}
