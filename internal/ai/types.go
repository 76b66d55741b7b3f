package ai

import "github.com/arin/fitbuddy/internal/models"

// Profile is the optional body data the diet advisor tailors its answer to.
type Profile struct {
	HeightCM    float64 `json:"height_cm,omitempty"`
	WeightKG    float64 `json:"weight_kg,omitempty"`
	FitnessGoal string  `json:"fitness_goal,omitempty"`
}

// IsZero reports whether no profile data was given.
func (p *Profile) IsZero() bool {
	return p == nil || (p.HeightCM == 0 && p.WeightKG == 0 && p.FitnessGoal == "")
}

// chatRequest is the request body sent to the ai-chat function.
type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

// dietRequest is the request body sent to the diet-advisor function.
type dietRequest struct {
	Prompt      string   `json:"prompt"`
	UserProfile *Profile `json:"userProfile,omitempty"`
}

// dietResponse is the response body from the diet-advisor function.
type dietResponse struct {
	Advice string `json:"advice"`
}
