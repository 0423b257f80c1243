package models

// ReviewRecord is one accepted review or recommendation.
type ReviewRecord struct {
	Text     string
	Author   string
	Rating   float64 // 0 when the review carries no rating
	Date     string  // raw date text as rendered
	Verified bool
	// Strategy is the discovery strategy that first found the review.
	Strategy string
}
