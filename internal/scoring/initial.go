package scoring

import (
	"math"
	"time"
)

const (
	initialBase        = 0.7
	initialFreshWeight = 0.3
	initialDecayWindow = 72 * time.Hour
)

// InitialScore is the ingestion-time estimate: a 0.7 base plus up to 0.3 for
// freshness, where freshness decays linearly to zero over 72 hours.
func InitialScore(publishedAt, now time.Time) float64 {
	return initialBase + initialFreshWeight*LinearFreshness(now.Sub(publishedAt), initialDecayWindow)
}

// LinearFreshness falls from 1 at age 0 to 0 at window and stays there.
// Negative ages count as brand new.
func LinearFreshness(age, window time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Max(0, 1-age.Hours()/window.Hours())
}

// Freshness halves every halfLife.
func Freshness(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	if halfLife <= 0 {
		return 0
	}
	return math.Pow(0.5, float64(age)/float64(halfLife))
}
