package quiz

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rating thresholds; each is inclusive for its own band.
const (
	hardRatingFloor   = 8
	mediumRatingFloor = 5
)

// TimeLimit is the countdown allotted to a whole quiz.
type TimeLimit struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (t TimeLimit) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

func (t TimeLimit) IsZero() bool {
	return t.TotalSeconds() <= 0
}

func (t TimeLimit) Duration() time.Duration {
	return time.Duration(t.TotalSeconds()) * time.Second
}

// MapRatingToDifficulty derives difficulty and time limit from a rating alone.
func MapRatingToDifficulty(rating int) (Difficulty, TimeLimit) {
	switch {
	case rating >= hardRatingFloor:
		return DifficultyHard, TimeLimit{Minutes: 5}
	case rating >= mediumRatingFloor:
		return DifficultyMedium, TimeLimit{Minutes: 10}
	default:
		return DifficultyEasy, TimeLimit{Minutes: 20}
	}
}
