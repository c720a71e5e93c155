package database

import (
	"time"

	"github.com/ZJUSCT/CSArena/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Score & Leaderboard

func SetIndividualPoints(db *gorm.DB, userID string, points int) error {
	return db.Model(&models.User{}).Where("id = ?", userID).Update("individual_points", points).Error
}

// IncrementGroupContestScore adds delta to a group's score in a contest,
// creating the row on first contribution. The increment happens in the
// database so concurrent contributions are never lost.
func IncrementGroupContestScore(db *gorm.DB, groupID, contestID string, delta float64) error {
	row := models.GroupOnContest{
		GroupID:   groupID,
		ContestID: contestID,
		Score:     delta,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "group_id"}, {Name: "contest_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":      gorm.Expr("group_on_contests.score + ?", delta),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

// RecomputeGroupPoints sets a group's total to the sum of its scores across
// every contest.
func RecomputeGroupPoints(db *gorm.DB, groupID string) (float64, error) {
	var total float64
	if err := db.Model(&models.GroupOnContest{}).
		Select("COALESCE(SUM(score), 0)").
		Where("group_id = ?", groupID).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&models.Group{}).Where("id = ?", groupID).Update("group_points", total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetGroupContestRows returns the per-group rows of a contest in insertion
// order.
func GetGroupContestRows(db *gorm.DB, contestID string) ([]models.GroupOnContest, error) {
	var rows []models.GroupOnContest
	if err := db.Where("contest_id = ?", contestID).
		Order("created_at asc, group_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func UpdateGroupContestRank(db *gorm.DB, groupID, contestID string, rank int) error {
	return db.Model(&models.GroupOnContest{}).
		Where("group_id = ? AND contest_id = ?", groupID, contestID).
		Update("rank", rank).Error
}

type ContestLeaderboardEntry struct {
	Rank      int     `json:"rank"`
	GroupID   string  `json:"group_id"`
	GroupName string  `json:"group_name"`
	Score     float64 `json:"score"`
}

func GetContestLeaderboard(db *gorm.DB, contestID string) ([]ContestLeaderboardEntry, error) {
	var entries []ContestLeaderboardEntry
	err := db.Table("group_on_contests").
		Select("group_on_contests.rank, group_on_contests.group_id, user_groups.name as group_name, group_on_contests.score").
		Joins("join user_groups on user_groups.id = group_on_contests.group_id").
		Where("group_on_contests.contest_id = ?", contestID).
		Order("group_on_contests.rank asc").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func GetGroupLeaderboard(db *gorm.DB, limit int) ([]models.Group, error) {
	var groups []models.Group
	if err := db.Order("group_points desc, created_at asc").Limit(limit).Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func GetUserLeaderboard(db *gorm.DB, limit int) ([]models.User, error) {
	var users []models.User
	if err := db.Order("individual_points desc, created_at asc").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
