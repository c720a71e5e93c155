package contest

import (
	"fmt"
	"sort"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"gorm.io/gorm"
)

// OrderGroups sorts contest rows best first. Equal scores are broken by the
// earliest row (the group that scored first), then by group id.
func OrderGroups(rows []models.GroupOnContest) []models.GroupOnContest {
	ordered := make([]models.GroupOnContest, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].GroupID < ordered[j].GroupID
	})
	for i := range ordered {
		ordered[i].Rank = i + 1
	}
	return ordered
}

// Rank recomputes and stores the rank of every group in a contest.
func Rank(tx *gorm.DB, contestID string) ([]models.GroupOnContest, error) {
	rows, err := database.GetGroupContestRows(tx, contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest scores: %w", err)
	}
	ranked := OrderGroups(rows)
	for _, row := range ranked {
		if err := database.UpdateGroupContestRank(tx, row.GroupID, contestID, row.Rank); err != nil {
			return nil, fmt.Errorf("failed to update rank of group %s: %w", row.GroupID, err)
		}
	}
	return ranked, nil
}
