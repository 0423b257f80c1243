package models

import (
	"time"

	"realtor-extractor/dom"
)

// ExtractionTarget is the rendered document plus the page's canonical URL.
// The pipeline only reads it.
type ExtractionTarget struct {
	Page      dom.Page
	SourceURL string
}

// State is an orchestrator state.
type State string

// Orchestrator states.
const (
	StateIdle                 State = "idle"
	StateWaitingForKeyContent State = "waiting_for_key_content"
	StateExtractingAgent      State = "extracting_agent"
	StateExtractingListings   State = "extracting_listings"
	StateExtractingReviews    State = "extracting_reviews"
	StateNormalizing          State = "normalizing"
	StateCheckingDuplicate    State = "checking_duplicate"
	StateComplete             State = "complete"
	StatePartialTimeout       State = "partial_timeout"
)

// Phase names used as metadata keys.
type Phase string

// Phases.
const (
	PhaseKeyContent     Phase = "key_content"
	PhaseAgent          Phase = "agent"
	PhaseListings       Phase = "listings"
	PhaseReviews        Phase = "reviews"
	PhaseNormalize      Phase = "normalize"
	PhaseDuplicateCheck Phase = "duplicate_check"
)

// ErrTimeout is the metadata error value of a phase that ran out of budget.
const ErrTimeout = "timeout"

// ErrSkipped marks a phase never started because the run budget was spent.
const ErrSkipped = "skipped"

// ErrUnavailable marks a collaborator that could not answer.
const ErrUnavailable = "unavailable"

// Metadata describes how a run went.
type Metadata struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	PhaseDurations map[Phase]time.Duration
	Errors         map[Phase]string
	Truncated      map[Phase]bool
	States         []State
	FinalState     State
}

// DuplicateStatus is what the persistence collaborator said about the source URL.
type DuplicateStatus struct {
	Checked     bool
	IsDuplicate bool
	Existing    *AgentProfile
}

// ExtractionResult is the root aggregate of one run.
type ExtractionResult struct {
	SourceURL string
	Agent     AgentRecord
	Listings  []ListingRecord
	Reviews   []ReviewRecord
	Photos    PhotoSet
	Metadata  Metadata

	// Profile is the canonical projection produced while Normalizing.
	Profile   *AgentProfile
	Duplicate DuplicateStatus
}

// TimedOut reports whether any phase recorded a timeout.
func (r *ExtractionResult) TimedOut() bool {
	for _, e := range r.Metadata.Errors {
		if e == ErrTimeout {
			return true
		}
	}
	return false
}
