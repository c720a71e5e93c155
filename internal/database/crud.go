package database

import (
	"errors"
	"time"

	"github.com/ZJUSCT/CSArena/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAlreadyInGroup = errors.New("user already belongs to a group")
	ErrInvalidMode    = errors.New("invalid permission mode")
)

// User CRUD
func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetAllUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func UpdateUser(db *gorm.DB, user *models.User) error {
	return db.Save(user).Error
}

// Group CRUD
func CreateGroup(db *gorm.DB, group *models.Group) error {
	return db.Create(group).Error
}

func GetGroup(db *gorm.DB, id string) (*models.Group, error) {
	var group models.Group
	if err := db.Preload("Members").Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// GetCoordinatedGroup returns the group userID coordinates, or
// gorm.ErrRecordNotFound.
func GetCoordinatedGroup(db *gorm.DB, userID string) (*models.Group, error) {
	var group models.Group
	if err := db.Where("coordinator_id = ?", userID).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func IsCoordinator(db *gorm.DB, userID string) (bool, error) {
	var count int64
	err := db.Model(&models.Group{}).Where("coordinator_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// AddGroupMember puts a user into a group. A user belongs to at most one group.
func AddGroupMember(db *gorm.DB, groupID, userID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		user, err := GetUserByID(tx, userID)
		if err != nil {
			return err
		}
		if user.GroupID != nil {
			if *user.GroupID == groupID {
				return nil
			}
			return ErrAlreadyInGroup
		}
		if _, err := GetGroup(tx, groupID); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND group_id IS NULL", userID).
			Update("group_id", groupID).Error
	})
}

func GetGroupMemberIDs(db *gorm.DB, groupID string) ([]string, error) {
	var ids []string
	err := db.Model(&models.User{}).Where("group_id = ?", groupID).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// Question CRUD
func CreateQuestion(db *gorm.DB, q *models.Question, tagNames []string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range tagNames {
			tag := models.Tag{Name: name}
			if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			q.Tags = append(q.Tags, tag)
		}
		return tx.Create(q).Error
	})
}

func GetQuestion(db *gorm.DB, id string) (*models.Question, error) {
	var q models.Question
	if err := db.Preload("Tags").Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuestions lists questions, optionally narrowed by difficulty and tag.
func GetQuestions(db *gorm.DB, difficulty models.Difficulty, tag string) ([]models.Question, error) {
	query := db.Model(&models.Question{}).Preload("Tags")
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if tag != "" {
		query = query.Where("id IN (?)", db.Table("question_tags").
			Select("question_tags.question_id").
			Joins("join tags on tags.id = question_tags.tag_id").
			Where("tags.name = ?", tag))
	}
	var qs []models.Question
	if err := query.Order("points asc, slug asc").Find(&qs).Error; err != nil {
		return nil, err
	}
	return qs, nil
}

// Contest CRUD
func CreateContest(db *gorm.DB, contest *models.Contest) error {
	return db.Create(contest).Error
}

// GetContest loads a contest with its questions in sequence order.
func GetContest(db *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	err := db.Preload("Questions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sequence asc")
	}).Preload("Questions.Question").Where("id = ?", id).First(&contest).Error
	if err != nil {
		return nil, err
	}
	return &contest, nil
}

func GetAllContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Order("start_time desc").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

func AttachQuestion(db *gorm.DB, contestID, questionID string, sequence int) error {
	cq := models.ContestQuestion{ContestID: contestID, QuestionID: questionID, Sequence: sequence}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "contest_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sequence"}),
	}).Create(&cq).Error
}

// ActivateContest persists INACTIVE -> ACTIVE once the window has opened.
func ActivateContest(db *gorm.DB, contestID string, now time.Time) error {
	return db.Model(&models.Contest{}).
		Where("id = ? AND status = ? AND start_time <= ?", contestID, models.ContestInactive, now).
		Update("status", models.ContestActive).Error
}

// MarkContestCompleted moves a contest to COMPLETED. It reports whether this
// call performed the transition.
func MarkContestCompleted(db *gorm.DB, contestID string) (bool, error) {
	result := db.Model(&models.Contest{}).
		Where("id = ? AND status <> ?", contestID, models.ContestCompleted).
		Update("status", models.ContestCompleted)
	return result.RowsAffected > 0, result.Error
}

// Permissions

// PermissionSet is the resolved allow-list of one contest.
type PermissionSet struct {
	Mode     models.PermissionMode `json:"mode"`
	GroupIDs []string              `json:"group_ids"`
	UserIDs  []string              `json:"user_ids"`
}

// SetContestPermission replaces the allow-list of a contest.
func SetContestPermission(db *gorm.DB, contestID string, mode models.PermissionMode, ids []string) error {
	switch mode {
	case models.PermissionAll, models.PermissionGroups, models.PermissionUsers:
	default:
		return ErrInvalidMode
	}
	return db.Transaction(func(tx *gorm.DB) error {
		perm := models.ContestPermission{ContestID: contestID, Mode: mode}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contest_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "updated_at"}),
		}).Create(&perm).Error; err != nil {
			return err
		}
		if err := tx.Where("contest_id = ?", contestID).Delete(&models.ContestPermittedGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contest_id = ?", contestID).Delete(&models.ContestPermittedUser{}).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			var err error
			switch mode {
			case models.PermissionGroups:
				err = tx.Create(&models.ContestPermittedGroup{ContestID: contestID, GroupID: id}).Error
			case models.PermissionUsers:
				err = tx.Create(&models.ContestPermittedUser{ContestID: contestID, UserID: id}).Error
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetContestPermission returns the allow-list of a contest. A contest without
// an explicit permission is open to all groups.
func GetContestPermission(db *gorm.DB, contestID string) (*PermissionSet, error) {
	var perm models.ContestPermission
	err := db.Where("contest_id = ?", contestID).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PermissionSet{Mode: models.PermissionAll}, nil
	}
	if err != nil {
		return nil, err
	}

	set := &PermissionSet{Mode: perm.Mode, GroupIDs: []string{}, UserIDs: []string{}}
	if err := db.Model(&models.ContestPermittedGroup{}).Where("contest_id = ?", contestID).
		Order("group_id").Pluck("group_id", &set.GroupIDs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ContestPermittedUser{}).Where("contest_id = ?", contestID).
		Order("user_id").Pluck("user_id", &set.UserIDs).Error; err != nil {
		return nil, err
	}
	return set, nil
}

// PermittedUserIDs expands a contest's allow-list into the users it admits.
func PermittedUserIDs(db *gorm.DB, contestID string) ([]string, error) {
	set, err := GetContestPermission(db, contestID)
	if err != nil {
		return nil, err
	}
	var ids []string
	switch set.Mode {
	case models.PermissionUsers:
		return set.UserIDs, nil
	case models.PermissionGroups:
		if len(set.GroupIDs) == 0 {
			return []string{}, nil
		}
		err = db.Model(&models.User{}).Where("group_id IN ?", set.GroupIDs).Order("id").Pluck("id", &ids).Error
	default:
		err = db.Model(&models.User{}).Where("group_id IS NOT NULL").Order("id").Pluck("id", &ids).Error
	}
	return ids, err
}

// Attempts

// FindOrCreateTempContestTime returns the running-attempt record of a user,
// creating it stamped with now when absent. Concurrent callers converge on a
// single row.
func FindOrCreateTempContestTime(db *gorm.DB, userID, contestID string, now time.Time, duration int) (*models.TempContestTime, error) {
	record := models.TempContestTime{
		UserID:    userID,
		ContestID: contestID,
		StartTime: now,
		Duration:  duration,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return nil, err
	}
	var stored models.TempContestTime
	if err := db.Where("user_id = ? AND contest_id = ?", userID, contestID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func GetTempContestTime(db *gorm.DB, userID, contestID string) (*models.TempContestTime, error) {
	var record models.TempContestTime
	if err := db.Where("user_id = ? AND contest_id = ?", userID, contestID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteTempContestTime removes a running-attempt record and reports whether
// one existed.
func DeleteTempContestTime(db *gorm.DB, userID, contestID string) (bool, error) {
	result := db.Where("user_id = ? AND contest_id = ?", userID, contestID).Delete(&models.TempContestTime{})
	return result.RowsAffected > 0, result.Error
}

func CreateContestAttempt(db *gorm.DB, attempt *models.ContestAttempt) error {
	return db.Create(attempt).Error
}

// HasParticipated reports whether the user ended an attempt or has any
// submission recorded in the contest.
func HasParticipated(db *gorm.DB, userID, contestID string) (bool, error) {
	var count int64
	if err := db.Model(&models.ContestAttempt{}).
		Where("user_id = ? AND contest_id = ?", userID, contestID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := db.Model(&models.Submission{}).
		Where("user_id = ? AND contest_id = ?", userID, contestID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ContestParticipantIDs returns the distinct users with an ended attempt or a
// submission in the contest.
func ContestParticipantIDs(db *gorm.DB, contestID string) ([]string, error) {
	var fromSubs, fromAttempts []string
	if err := db.Model(&models.Submission{}).Where("contest_id = ?", contestID).
		Distinct().Pluck("user_id", &fromSubs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ContestAttempt{}).Where("contest_id = ?", contestID).
		Distinct().Pluck("user_id", &fromAttempts).Error; err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	ids := make([]string, 0, len(fromSubs)+len(fromAttempts))
	for _, id := range append(fromSubs, fromAttempts...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Submission CRUD
func CreateSubmission(db *gorm.DB, sub *models.Submission) error {
	return db.Create(sub).Error
}

func GetSubmissionsByUserID(db *gorm.DB, userID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// GetSubmissions lists submissions newest first, optionally narrowed to one
// contest.
func GetSubmissions(db *gorm.DB, contestID string, limit int) ([]models.Submission, error) {
	query := db.Order("created_at desc").Limit(limit)
	if contestID != "" {
		query = query.Where("contest_id = ?", contestID)
	}
	var subs []models.Submission
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// GetAcceptedSubmissions returns a user's accepted submissions oldest first.
func GetAcceptedSubmissions(db *gorm.DB, userID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("user_id = ? AND status = ?", userID, models.SubmissionAccepted).
		Order("created_at asc, id asc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
