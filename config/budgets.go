package config

import "time"

// Budgets are the compiled-in time and volume ceilings of one extraction run.
type Budgets struct {
	KeyContent time.Duration
	Agent      time.Duration
	Listings   time.Duration
	Reviews    time.Duration
	Total      time.Duration

	// DuplicateCheck bounds the persistence round trip. It runs even when
	// Total is exhausted.
	DuplicateCheck time.Duration

	MaxListings int

	PollInterval    time.Duration
	PollMaxAttempts int
	PollTimeout     time.Duration
	StabilityDwell  time.Duration
}

// DefaultBudgets returns the production budgets.
func DefaultBudgets() Budgets {
	return Budgets{
		KeyContent:     10 * time.Second,
		Agent:          30 * time.Second,
		Listings:       60 * time.Second,
		Reviews:        20 * time.Second,
		Total:          110 * time.Second,
		DuplicateCheck: 5 * time.Second,

		MaxListings: 20,

		PollInterval:    250 * time.Millisecond,
		PollMaxAttempts: 120,
		PollTimeout:     15 * time.Second,
		StabilityDwell:  time.Second,
	}
}

// Heuristic thresholds shared by the extractors.
const (
	MinReviewLength      = 40
	MaxReviewLength      = 2000
	ReviewSimilarity     = 0.8
	MinImageDimension    = 100
	MaxImageAspectRatio  = 8.0
	MinBioLength         = 50
	MaxBioLength         = 5000
	MaxPhotoAncestorWalk = 3
	MinAddressTokenMatch = 2
)
