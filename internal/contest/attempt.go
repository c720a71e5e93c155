package contest

import (
	"time"

	"github.com/ZJUSCT/CSArena/internal/database/models"
)

// AttemptState is where a user's attempt at one contest stands.
type AttemptState string

const (
	AttemptNotStarted AttemptState = "NOT_STARTED"
	AttemptRunning    AttemptState = "RUNNING"
	AttemptEnded      AttemptState = "ENDED"
)

// RemainingTime derives the time left in an attempt from the server clock,
// the recorded start and the allotted minutes. It never goes below zero.
func RemainingTime(now, startedAt time.Time, durationMinutes int, grace time.Duration) time.Duration {
	allotted := time.Duration(durationMinutes)*time.Minute + grace
	left := allotted - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// StateOf derives the attempt state from the stored records.
func StateOf(running *models.TempContestTime, ended bool) AttemptState {
	switch {
	case ended:
		return AttemptEnded
	case running != nil:
		return AttemptRunning
	default:
		return AttemptNotStarted
	}
}
