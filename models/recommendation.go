package models

// Difficulty is the bucketed scraping difficulty.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very-hard"
)

// ScrapingRecommendation is the advisory verdict for one snapshot.
// It is recomputed on every call and never persisted.
type ScrapingRecommendation struct {
	Approach   string     `json:"approach"`
	Difficulty Difficulty `json:"difficulty"`
	Details    []string   `json:"details"`
	Tools      []string   `json:"tools"`
}
