package storage

import (
	"context"

	"github.com/rotisserie/eris"

	"realtor-extractor/models"
)

// ErrUnavailable wraps every transport or database failure of a collaborator.
// Callers treat it as "could not tell" and carry on.
var ErrUnavailable = eris.New("storage: collaborator unavailable")

// DuplicateCheck is the answer to "has this profile been seen before?".
type DuplicateCheck struct {
	IsDuplicate bool                 `json:"isDuplicate"`
	Existing    *models.AgentProfile `json:"existing"`
}

// SubmitResult reports the outcome of persisting one profile.
type SubmitResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// DuplicateChecker looks a source URL up in persistence.
type DuplicateChecker interface {
	CheckDuplicate(ctx context.Context, sourceURL string) (DuplicateCheck, error)
}

// Submitter persists a canonical profile.
type Submitter interface {
	Submit(ctx context.Context, profile *models.AgentProfile) (SubmitResult, error)
}

// Store is a persistence backend the CLI can drive.
type Store interface {
	DuplicateChecker
	Submitter
	Close() error
}

// ProfileWriter exports canonical profiles to a file.
type ProfileWriter interface {
	Write(profiles []*models.AgentProfile) error
	Close() error
}
