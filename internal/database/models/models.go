package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ContestStatus string

const (
	ContestInactive  ContestStatus = "INACTIVE"
	ContestActive    ContestStatus = "ACTIVE"
	ContestCompleted ContestStatus = "COMPLETED"
)

type SubmissionStatus string

const (
	SubmissionAccepted SubmissionStatus = "ACCEPTED"
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

type Difficulty string

const (
	DifficultyBeginner Difficulty = "BEGINNER"
	DifficultyEasy     Difficulty = "EASY"
	DifficultyMedium   Difficulty = "MEDIUM"
	DifficultyHard     Difficulty = "HARD"
	DifficultyVeryHard Difficulty = "VERYHARD"
)

var difficultyPoints = map[Difficulty]int{
	DifficultyBeginner: 2,
	DifficultyEasy:     4,
	DifficultyMedium:   6,
	DifficultyHard:     8,
	DifficultyVeryHard: 10,
}

// Points returns the score a question of this difficulty is worth, or 0 for
// an unknown difficulty.
func (d Difficulty) Points() int {
	return difficultyPoints[d]
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyPoints[d]
	return ok
}

type Platform string

const (
	PlatformLeetCode   Platform = "leetcode"
	PlatformCodeforces Platform = "codeforces"
)

// PermissionMode selects which allow-list of a ContestPermission applies.
type PermissionMode string

const (
	PermissionAll    PermissionMode = "all"
	PermissionGroups PermissionMode = "groups"
	PermissionUsers  PermissionMode = "users"
)

// JSONMap is a helper type for storing JSON data in the database.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email              string `gorm:"uniqueIndex" json:"email"`
	Username           string `gorm:"uniqueIndex" json:"username"`
	LeetcodeUsername   string `json:"leetcode_username"`
	CodeforcesUsername string `json:"codeforces_username"`
	IndividualPoints   int    `json:"individual_points"`

	GroupID *string `gorm:"index" json:"group_id"`
}

// PlatformUsername returns the handle the user registered for a platform.
func (u *User) PlatformUsername(p Platform) string {
	switch p {
	case PlatformLeetCode:
		return u.LeetcodeUsername
	case PlatformCodeforces:
		return u.CodeforcesUsername
	}
	return ""
}

type Group struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name          string  `gorm:"uniqueIndex" json:"name"`
	GroupPoints   float64 `json:"group_points"`
	CoordinatorID string  `gorm:"index" json:"coordinator_id"`

	Members []User `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

func (Group) TableName() string {
	return "user_groups"
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex" json:"name"`
}

type Question struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Slug          string     `gorm:"uniqueIndex" json:"slug"`
	Title         string     `json:"title"`
	LeetcodeURL   string     `json:"leetcode_url,omitempty"`
	CodeforcesURL string     `json:"codeforces_url,omitempty"`
	Difficulty    Difficulty `gorm:"index" json:"difficulty"`
	Points        int        `json:"points"`
	Tags          []Tag      `gorm:"many2many:question_tags" json:"tags"`
}

// Platform reports which judge hosts the question. Exactly one URL is set
// on a valid question.
func (q *Question) Platform() Platform {
	if q.LeetcodeURL != "" {
		return PlatformLeetCode
	}
	if q.CodeforcesURL != "" {
		return PlatformCodeforces
	}
	return ""
}

type Contest struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  int           `json:"duration"` // minutes
	Status    ContestStatus `gorm:"index" json:"status"`

	Questions []ContestQuestion `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// InWindow reports whether t lies within [StartTime, EndTime].
func (c *Contest) InWindow(t time.Time) bool {
	return !t.Before(c.StartTime) && !t.After(c.EndTime)
}

// StatusAt is the status as of t. A contest scheduled in advance is stored
// INACTIVE and counts as ACTIVE once its window opens.
func (c *Contest) StatusAt(t time.Time) ContestStatus {
	if c.Status == ContestInactive && !t.Before(c.StartTime) {
		return ContestActive
	}
	return c.Status
}

// ContestQuestion orders a question within one contest.
type ContestQuestion struct {
	ContestID  string   `gorm:"primaryKey" json:"contest_id"`
	QuestionID string   `gorm:"primaryKey" json:"question_id"`
	Sequence   int      `json:"sequence"`
	Question   Question `gorm:"foreignKey:QuestionID" json:"question"`
}

type ContestPermission struct {
	ContestID string         `gorm:"primaryKey" json:"contest_id"`
	Mode      PermissionMode `json:"mode"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ContestPermittedGroup struct {
	ContestID string `gorm:"primaryKey"`
	GroupID   string `gorm:"primaryKey"`
}

type ContestPermittedUser struct {
	ContestID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
}

type Submission struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time

	UserID     string  `gorm:"index" json:"user_id"`
	QuestionID string  `gorm:"index" json:"question_id"`
	ContestID  *string `gorm:"index" json:"contest_id"` // nil for practice mode

	Score  int              `json:"score"`
	Status SubmissionStatus `gorm:"index" json:"status"`
	Info   JSONMap          `gorm:"type:text" json:"info"`
}

// TempContestTime pins the wall-clock start of a running attempt. It is
// deleted when the attempt ends.
type TempContestTime struct {
	UserID    string    `gorm:"primaryKey"`
	ContestID string    `gorm:"primaryKey"`
	StartTime time.Time
	Duration  int // minutes, copied from the contest at start
	CreatedAt time.Time
}

// ContestAttempt records an ended attempt. NoAttempt marks an attempt that
// ended without any solved question.
type ContestAttempt struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	ContestID   string    `gorm:"primaryKey" json:"contest_id"`
	FinalScore  int       `json:"final_score"`
	SolvedCount int       `json:"solved_count"`
	NoAttempt   bool      `json:"no_attempt"`
	EndedAt     time.Time `json:"ended_at"`
}

type GroupOnContest struct {
	GroupID   string `gorm:"primaryKey" json:"group_id"`
	ContestID string `gorm:"primaryKey" json:"contest_id"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}
