package contest

import (
	"slices"
	"time"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
)

// GateInput is everything the permission gate looks at.
type GateInput struct {
	Contest         *models.Contest
	User            *models.User
	IsCoordinator   bool
	Permission      *database.PermissionSet
	HasParticipated bool
	Now             time.Time
}

// Evaluate decides whether a user may start a contest. It returns nil to
// allow, or a *DenyError. Checks run in a fixed order and the first failing
// one wins.
func Evaluate(in GateInput) error {
	if in.Contest == nil {
		return deny(ReasonContestNotFound)
	}
	if in.Now.Before(in.Contest.StartTime) {
		return deny(ReasonNotStarted)
	}
	if in.Now.After(in.Contest.EndTime) {
		return deny(ReasonWindowClosed)
	}
	if in.Contest.Status == models.ContestCompleted {
		return deny(ReasonAlreadyCompleted)
	}

	perm := in.Permission
	if perm == nil {
		perm = &database.PermissionSet{Mode: models.PermissionAll}
	}

	if in.User.GroupID == nil {
		if !(perm.Mode == models.PermissionUsers && in.IsCoordinator) {
			return deny(ReasonNoGroup)
		}
	}

	switch perm.Mode {
	case models.PermissionGroups:
		if !slices.Contains(perm.GroupIDs, *in.User.GroupID) {
			return deny(ReasonGroupNotPermitted)
		}
	case models.PermissionUsers:
		if !slices.Contains(perm.UserIDs, in.User.ID) {
			return deny(ReasonUserNotPermitted)
		}
	}

	if in.HasParticipated {
		return deny(ReasonAlreadyAttempted)
	}
	return nil
}
