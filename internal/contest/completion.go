package contest

import (
	"fmt"

	"github.com/ZJUSCT/CSArena/internal/database"
	"gorm.io/gorm"
)

// Covered reports whether every permitted user appears among participants.
// An empty permitted set never counts as covered.
func Covered(permitted, participants []string) bool {
	if len(permitted) == 0 {
		return false
	}
	took := make(map[string]bool, len(participants))
	for _, id := range participants {
		took[id] = true
	}
	for _, id := range permitted {
		if !took[id] {
			return false
		}
	}
	return true
}

// MaybeComplete marks the contest COMPLETED once every permitted user has
// taken part. It reports whether this call completed the contest.
func MaybeComplete(tx *gorm.DB, contestID string) (bool, error) {
	permitted, err := database.PermittedUserIDs(tx, contestID)
	if err != nil {
		return false, fmt.Errorf("failed to load permitted users: %w", err)
	}
	participants, err := database.ContestParticipantIDs(tx, contestID)
	if err != nil {
		return false, fmt.Errorf("failed to load participants: %w", err)
	}
	if !Covered(permitted, participants) {
		return false, nil
	}
	return database.MarkContestCompleted(tx, contestID)
}
