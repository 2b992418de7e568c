package recommend

import (
	"fmt"
	"strings"

	"fitpair-backend/internal/models"

	"github.com/goccy/go-json"
)

// MaxRecommendations is the number of partners the model is asked for
const MaxRecommendations = 5

// BuildPrompt renders the partner-matching instructions for the model with
// the requester and the pool embedded as JSON
func BuildPrompt(requester *models.UserProfile, pool []*models.UserProfile) (string, error) {
	requesterJSON, err := json.Marshal(requester)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requester: %w", err)
	}
	poolJSON, err := json.Marshal(pool)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString("As a fitness AI, analyze this user profile and suggest compatible workout partners.\n")
	fmt.Fprintf(&b, "Current user: %s\n", requesterJSON)
	fmt.Fprintf(&b, "Available users: %s\n\n", poolJSON)
	b.WriteString("IMPORTANT: Only include users that have the EXACT SAME gym name as the current user.\n\n")
	fmt.Fprintf(&b, "Return a JSON array of up to %d most compatible users.\n", MaxRecommendations)
	fmt.Fprintf(&b, "Do not create fictional users or placeholders if fewer than %d users match the criteria.\n\n", MaxRecommendations)
	b.WriteString("Base compatibility on:\n")
	b.WriteString("1. Must have the same gym name (case-insensitive match) - this is the highest priority\n")
	b.WriteString("2. Similar age (if available)\n")
	b.WriteString("3. Similar interests from bio (if available)\n\n")
	b.WriteString("Include ONLY these fields in each user object:\n")
	b.WriteString(`{
  "email": "user's email",
  "username": "user's name",
  "age": "user's age",
  "gymName": "EXACT gym name from their profile",
  "bio": "user's bio",
  "reason": "A personalized 1-2 sentence explanation of why this person would be a good workout partner for the user"
}`)
	b.WriteString("\n\nFormat your response as a raw JSON array with NO markdown formatting or extra text.\n")
	b.WriteString("If no users match the criteria, return an empty array [].")

	return b.String(), nil
}
