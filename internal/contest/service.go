package contest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/metrics"
	"github.com/ZJUSCT/CSArena/internal/oracle"
	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Service runs the contest lifecycle against the shared store. It holds no
// contest state of its own; every call reads fresh from the database.
type Service struct {
	db        *gorm.DB
	policy    config.Contest
	oracle    oracle.Oracle
	publisher pubsub.Publisher
	metrics   *metrics.Metrics
	starts    singleflight.Group
}

func NewService(db *gorm.DB, policy config.Contest, o oracle.Oracle, p pubsub.Publisher, m *metrics.Metrics) *Service {
	if policy.DivisorFloor < 1 {
		policy.DivisorFloor = 1
	}
	if policy.TransactionTimeout <= 0 {
		policy.TransactionTimeout = 40 * time.Second
	}
	return &Service{db: db, policy: policy, oracle: o, publisher: p, metrics: m}
}

type StartResult struct {
	RemainingTimeSeconds int64             `json:"remaining_time_seconds"`
	StartedAt            time.Time         `json:"started_at"`
	Questions            []models.Question `json:"questions"`
}

type EndRequest struct {
	FinalScore        int      `json:"final_score"`
	SolvedQuestionIDs []string `json:"solved_question_ids"`
}

type EndResult struct {
	Message          string  `json:"message"`
	FinalScore       int     `json:"final_score"`
	IndividualPoints int     `json:"individual_points"`
	GroupID          string  `json:"group_id,omitempty"`
	Contribution     float64 `json:"contribution"`
	Completed        bool    `json:"completed"`
}

type AttemptStatus struct {
	State                AttemptState `json:"state"`
	RemainingTimeSeconds int64        `json:"remaining_time_seconds"`
}

func (s *Service) gateInput(db *gorm.DB, userID, contestID string, now time.Time) (GateInput, error) {
	in := GateInput{Now: now}
	contest, err := database.GetContest(db, contestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return in, nil
	}
	if err != nil {
		return in, err
	}
	in.Contest = contest

	user, err := database.GetUserByID(db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return in, ErrUserNotFound
	}
	if err != nil {
		return in, err
	}
	in.User = user

	if in.IsCoordinator, err = database.IsCoordinator(db, userID); err != nil {
		return in, err
	}
	if in.Permission, err = database.GetContestPermission(db, contestID); err != nil {
		return in, err
	}
	if in.HasParticipated, err = database.HasParticipated(db, userID, contestID); err != nil {
		return in, err
	}
	return in, nil
}

// CanStart runs the permission gate without side effects.
func (s *Service) CanStart(ctx context.Context, userID, contestID string, now time.Time) error {
	in, err := s.gateInput(s.db.WithContext(ctx), userID, contestID, now)
	if err != nil {
		return err
	}
	return Evaluate(in)
}

// Start begins an attempt, or resumes the running one. Remaining time is
// always derived from the stored start, so repeated calls never reset it.
func (s *Service) Start(ctx context.Context, userID, contestID string, now time.Time) (*StartResult, error) {
	res, err := s.start(ctx, userID, contestID, now)
	s.metrics.ContestStarts.WithLabelValues(resultLabel(err)).Inc()
	return res, err
}

func (s *Service) start(ctx context.Context, userID, contestID string, now time.Time) (*StartResult, error) {
	db := s.db.WithContext(ctx)
	in, err := s.gateInput(db, userID, contestID, now)
	if err != nil {
		return nil, err
	}
	if err := Evaluate(in); err != nil {
		return nil, err
	}
	if in.Contest.Status == models.ContestInactive {
		if err := database.ActivateContest(db, contestID, now); err != nil {
			return nil, fmt.Errorf("failed to activate contest: %w", err)
		}
	}

	v, err, _ := s.starts.Do(userID+"/"+contestID, func() (interface{}, error) {
		return database.FindOrCreateTempContestTime(db, userID, contestID, now, in.Contest.Duration)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record contest start: %w", err)
	}
	record := v.(*models.TempContestTime)

	remaining := RemainingTime(now, record.StartTime, record.Duration, s.policy.StartGrace)
	if remaining <= 0 {
		return nil, deny(ReasonTimeExpired)
	}

	questions := make([]models.Question, 0, len(in.Contest.Questions))
	for _, cq := range in.Contest.Questions {
		questions = append(questions, cq.Question)
	}
	zap.S().Infof("user %s started contest %s, %s remaining", userID, contestID, remaining.Truncate(time.Second))
	return &StartResult{
		RemainingTimeSeconds: int64(remaining / time.Second),
		StartedAt:            record.StartTime,
		Questions:            questions,
	}, nil
}

// Status reports the attempt state without changing it.
func (s *Service) Status(ctx context.Context, userID, contestID string, now time.Time) (*AttemptStatus, error) {
	db := s.db.WithContext(ctx)
	if _, err := database.GetContest(db, contestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, deny(ReasonContestNotFound)
		}
		return nil, err
	}
	var running *models.TempContestTime
	record, err := database.GetTempContestTime(db, userID, contestID)
	switch {
	case err == nil:
		running = record
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	var attempts int64
	if err := db.Model(&models.ContestAttempt{}).
		Where("user_id = ? AND contest_id = ?", userID, contestID).Count(&attempts).Error; err != nil {
		return nil, err
	}

	status := &AttemptStatus{State: StateOf(running, attempts > 0)}
	if status.State == AttemptRunning {
		status.RemainingTimeSeconds = int64(RemainingTime(now, running.StartTime, running.Duration, s.policy.StartGrace) / time.Second)
	}
	return status, nil
}

// End finishes a running attempt. Submissions, scores, ranks and completion
// are written in one transaction; on any failure nothing is kept.
func (s *Service) End(ctx context.Context, userID, contestID string, req EndRequest, now time.Time) (*EndResult, error) {
	began := time.Now()
	res, err := s.end(ctx, userID, contestID, req, now)
	s.metrics.EndLatency.Observe(time.Since(began).Seconds())
	s.metrics.ContestEnds.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		return nil, err
	}

	events := []pubsub.Event{pubsub.NewEvent(pubsub.EventContestUpdated, contestID, nil)}
	if res.GroupID != "" {
		events = append(events, pubsub.NewEvent(pubsub.EventLeaderboardUpdated, contestID, nil))
	}
	if res.Completed {
		s.metrics.ContestsCompleted.Inc()
		events = append(events, pubsub.NewEvent(pubsub.EventContestCompleted, contestID, nil))
	}
	s.publish(ctx, events...)
	return res, nil
}

func (s *Service) end(ctx context.Context, userID, contestID string, req EndRequest, now time.Time) (*EndResult, error) {
	db := s.db.WithContext(ctx)
	contest, err := database.GetContest(db, contestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, deny(ReasonContestNotFound)
	}
	if err != nil {
		return nil, err
	}
	user, err := database.GetUserByID(db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	inContest := make(map[string]models.Question, len(contest.Questions))
	for _, cq := range contest.Questions {
		inContest[cq.QuestionID] = cq.Question
	}
	var solved []models.Question
	seen := make(map[string]bool)
	for _, id := range req.SolvedQuestionIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		q, ok := inContest[id]
		if !ok {
			return nil, &DenyError{Reason: ReasonQuestionNotInScope, Detail: id}
		}
		solved = append(solved, q)
	}

	// Verification talks to the outside world, so it stays out of the
	// transaction.
	accepted := make([]bool, len(solved))
	verified := 0
	for i, q := range solved {
		platform := q.Platform()
		ok, err := s.oracle.HasAcceptedSubmission(ctx, platform, user.PlatformUsername(platform), q.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to verify %s: %w", q.Slug, err)
		}
		accepted[i] = ok
		if ok {
			verified += q.Points
		}
	}
	finalScore := EffectiveScore(req.FinalScore, verified)
	if finalScore != req.FinalScore {
		zap.S().Warnf("user %s claimed %d in contest %s, verified %d", userID, req.FinalScore, contestID, verified)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.policy.TransactionTimeout)
	defer cancel()

	res := &EndResult{Message: "Contest ended successfully", FinalScore: finalScore}
	err = s.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		existed, err := database.DeleteTempContestTime(tx, userID, contestID)
		if err != nil {
			return err
		}
		if !existed {
			return deny(ReasonAttemptNotRunning)
		}

		solvedCount := 0
		for i, q := range solved {
			sub := models.Submission{
				ID:         uuid.NewString(),
				UserID:     userID,
				QuestionID: q.ID,
				ContestID:  &contestID,
				Status:     models.SubmissionRejected,
				Info:       models.JSONMap{"platform": string(q.Platform()), "slug": q.Slug},
			}
			if accepted[i] {
				sub.Status = models.SubmissionAccepted
				sub.Score = q.Points
				solvedCount++
			}
			if err := database.CreateSubmission(tx, &sub); err != nil {
				return err
			}
		}

		attempt := models.ContestAttempt{
			UserID:      userID,
			ContestID:   contestID,
			FinalScore:  finalScore,
			SolvedCount: solvedCount,
			NoAttempt:   len(solved) == 0,
			EndedAt:     now,
		}
		if err := database.CreateContestAttempt(tx, &attempt); err != nil {
			return err
		}

		points, err := recomputeIndividual(tx, userID)
		if err != nil {
			return err
		}
		res.IndividualPoints = points

		if user.GroupID != nil && contest.InWindow(now) {
			groupID := *user.GroupID
			perm, err := database.GetContestPermission(tx, contestID)
			if err != nil {
				return err
			}
			members, err := database.GetGroupMemberIDs(tx, groupID)
			if err != nil {
				return err
			}
			contribution := Contribution(finalScore, PermittedMemberCount(perm, groupID, members), s.policy.DivisorFloor)
			if err := database.IncrementGroupContestScore(tx, groupID, contestID, contribution); err != nil {
				return err
			}
			if _, err := database.RecomputeGroupPoints(tx, groupID); err != nil {
				return err
			}
			if _, err := Rank(tx, contestID); err != nil {
				return err
			}
			res.GroupID = groupID
			res.Contribution = contribution
		}

		res.Completed, err = MaybeComplete(tx, contestID)
		return err
	}, s.txOptions()...)
	if err != nil {
		if _, ok := ReasonOf(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to end contest: %w", err)
	}

	zap.S().Infof("user %s ended contest %s with score %d (group share %.2f)", userID, contestID, finalScore, res.Contribution)
	return res, nil
}

func recomputeIndividual(tx *gorm.DB, userID string) (int, error) {
	subs, err := database.GetAcceptedSubmissions(tx, userID)
	if err != nil {
		return 0, err
	}
	points := IndividualScore(subs)
	if err := database.SetIndividualPoints(tx, userID, points); err != nil {
		return 0, err
	}
	return points, nil
}

// RecordPractice stores a practice-mode submission and refreshes the user's
// individual points. Practice never touches group or contest scores.
func (s *Service) RecordPractice(ctx context.Context, userID, questionID string) (*models.Submission, error) {
	db := s.db.WithContext(ctx)
	user, err := database.GetUserByID(db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	q, err := database.GetQuestion(db, questionID)
	if err != nil {
		return nil, err
	}

	platform := q.Platform()
	ok, err := s.oracle.HasAcceptedSubmission(ctx, platform, user.PlatformUsername(platform), q.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", q.Slug, err)
	}
	sub := &models.Submission{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuestionID: q.ID,
		Status:     models.SubmissionRejected,
		Info:       models.JSONMap{"platform": string(platform), "slug": q.Slug},
	}
	if ok {
		sub.Status = models.SubmissionAccepted
		sub.Score = q.Points
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := database.CreateSubmission(tx, sub); err != nil {
			return err
		}
		_, err := recomputeIndividual(tx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}
	s.metrics.PracticeSubmission.WithLabelValues(string(sub.Status)).Inc()
	return sub, nil
}

// RecalculateUser rebuilds a user's individual points from their submissions.
func (s *Service) RecalculateUser(ctx context.Context, userID string) (int, error) {
	var points int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := database.GetUserByID(tx, userID); err != nil {
			return err
		}
		var err error
		points, err = recomputeIndividual(tx, userID)
		return err
	})
	return points, err
}

// RankContest re-runs the ranking of a contest on demand.
func (s *Service) RankContest(ctx context.Context, contestID string) ([]models.GroupOnContest, error) {
	var ranked []models.GroupOnContest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		ranked, err = Rank(tx, contestID)
		return err
	}, s.txOptions()...)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, pubsub.NewEvent(pubsub.EventLeaderboardUpdated, contestID, nil))
	return ranked, nil
}

// SetPermission replaces the allow-list of a contest.
func (s *Service) SetPermission(ctx context.Context, contestID string, mode models.PermissionMode, ids []string) error {
	db := s.db.WithContext(ctx)
	if _, err := database.GetContest(db, contestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deny(ReasonContestNotFound)
		}
		return err
	}
	if err := database.SetContestPermission(db, contestID, mode, ids); err != nil {
		return err
	}
	s.publish(ctx, pubsub.NewEvent(pubsub.EventContestUpdated, contestID, nil))
	return nil
}

// AddQuestion attaches a question to a contest at the given position.
func (s *Service) AddQuestion(ctx context.Context, contestID, questionID string, sequence int) error {
	db := s.db.WithContext(ctx)
	if _, err := database.GetContest(db, contestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return deny(ReasonContestNotFound)
		}
		return err
	}
	q, err := database.GetQuestion(db, questionID)
	if err != nil {
		return err
	}
	if err := database.AttachQuestion(db, contestID, questionID, sequence); err != nil {
		return err
	}
	s.publish(ctx, pubsub.NewEvent(pubsub.EventQuestionAdded, contestID, q))
	return nil
}

func (s *Service) txOptions() []*sql.TxOptions {
	if s.db.Dialector.Name() == "postgres" {
		return []*sql.TxOptions{{Isolation: sql.LevelReadCommitted}}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, events ...pubsub.Event) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, e := range events {
		status := "ok"
		if err := s.publisher.Publish(pctx, e); err != nil {
			status = "error"
			zap.S().Warnf("failed to publish %s for contest %s: %v", e.Type, e.ContestID, err)
		}
		s.metrics.EventsPublished.WithLabelValues(e.Type, status).Inc()
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if r, ok := ReasonOf(err); ok {
		return string(r)
	}
	return "error"
}
