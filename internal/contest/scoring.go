package contest

import (
	"slices"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
)

// IndividualScore sums accepted submissions, counting each
// (question, contest) pair once. subs must be ordered oldest first; the
// earliest accepted row of a pair is the one that counts.
func IndividualScore(subs []models.Submission) int {
	type key struct {
		question string
		contest  string
	}
	seen := make(map[key]bool, len(subs))
	total := 0
	for _, s := range subs {
		if s.Status != models.SubmissionAccepted {
			continue
		}
		k := key{question: s.QuestionID}
		if s.ContestID != nil {
			k.contest = *s.ContestID
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		total += s.Score
	}
	return total
}

// Divisor normalises a contribution by expected team size, never below floor.
func Divisor(permittedMembers, floor int) int {
	if permittedMembers < 1 {
		permittedMembers = 1
	}
	if permittedMembers < floor {
		return floor
	}
	return permittedMembers
}

// Contribution is the share one member's final score adds to the group's
// contest score.
func Contribution(finalScore, permittedMembers, floor int) float64 {
	return float64(finalScore) / float64(Divisor(permittedMembers, floor))
}

// PermittedMemberCount counts the members of groupID admitted by perm. The
// acting user always counts, so the result is at least 1.
func PermittedMemberCount(perm *database.PermissionSet, groupID string, memberIDs []string) int {
	count := 0
	switch perm.Mode {
	case models.PermissionGroups:
		if slices.Contains(perm.GroupIDs, groupID) {
			count = len(memberIDs)
		}
	case models.PermissionUsers:
		for _, id := range memberIDs {
			if slices.Contains(perm.UserIDs, id) {
				count++
			}
		}
	default:
		count = len(memberIDs)
	}
	if count < 1 {
		count = 1
	}
	return count
}

// EffectiveScore caps the score a client claims at what was verified.
func EffectiveScore(claimed, verified int) int {
	if claimed < 0 {
		claimed = 0
	}
	if claimed > verified {
		return verified
	}
	return claimed
}
