package models

import "time"

// Summary is the human-oriented digest of one run.
type Summary struct {
	SourceURL string
	AgentName string
	State     State

	TotalListings    int
	ListingsByStatus map[string]int

	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	MostExpensive *Property

	PhotoCount   int
	GalleryCount int

	ReviewCount   int
	AverageRating float64

	PhaseDurations map[Phase]time.Duration
	Errors         map[Phase]string
	Duplicate      bool
}
