package contest

import (
	"errors"
	"net/http"
)

// Reason identifies why a contest action was refused. Callers branch on it,
// so every value is distinct and stable.
type Reason string

const (
	ReasonContestNotFound    Reason = "CONTEST_NOT_FOUND"
	ReasonNotStarted         Reason = "NOT_STARTED"
	ReasonWindowClosed       Reason = "WINDOW_CLOSED"
	ReasonAlreadyCompleted   Reason = "ALREADY_COMPLETED"
	ReasonNoGroup            Reason = "NO_GROUP"
	ReasonGroupNotPermitted  Reason = "GROUP_NOT_PERMITTED"
	ReasonUserNotPermitted   Reason = "USER_NOT_PERMITTED"
	ReasonAlreadyAttempted   Reason = "ALREADY_ATTEMPTED"
	ReasonTimeExpired        Reason = "TIME_EXPIRED"
	ReasonAttemptNotRunning  Reason = "ATTEMPT_NOT_RUNNING"
	ReasonQuestionNotInScope Reason = "QUESTION_NOT_IN_CONTEST"
)

var reasonMessages = map[Reason]string{
	ReasonContestNotFound:    "contest not found",
	ReasonNotStarted:         "contest has not started yet",
	ReasonWindowClosed:       "contest window has closed",
	ReasonAlreadyCompleted:   "contest is already completed",
	ReasonNoGroup:            "you must join a group to take part in contests",
	ReasonGroupNotPermitted:  "your group is not permitted in this contest",
	ReasonUserNotPermitted:   "you are not permitted in this contest",
	ReasonAlreadyAttempted:   "you have already attempted this contest",
	ReasonTimeExpired:        "your time for this contest has run out",
	ReasonAttemptNotRunning:  "you have no running attempt for this contest",
	ReasonQuestionNotInScope: "submitted question is not part of this contest",
}

var reasonStatus = map[Reason]int{
	ReasonContestNotFound:    http.StatusNotFound,
	ReasonNotStarted:         http.StatusForbidden,
	ReasonWindowClosed:       http.StatusForbidden,
	ReasonAlreadyCompleted:   http.StatusGone,
	ReasonNoGroup:            http.StatusForbidden,
	ReasonGroupNotPermitted:  http.StatusForbidden,
	ReasonUserNotPermitted:   http.StatusForbidden,
	ReasonAlreadyAttempted:   http.StatusConflict,
	ReasonTimeExpired:        http.StatusGone,
	ReasonAttemptNotRunning:  http.StatusConflict,
	ReasonQuestionNotInScope: http.StatusBadRequest,
}

// DenyError is a precondition failure carrying its Reason.
type DenyError struct {
	Reason Reason
	Detail string
}

func (e *DenyError) Error() string {
	msg := reasonMessages[e.Reason]
	if msg == "" {
		msg = string(e.Reason)
	}
	if e.Detail != "" {
		return msg + ": " + e.Detail
	}
	return msg
}

// HTTPStatus maps the reason to the status code the API answers with.
func (e *DenyError) HTTPStatus() int {
	if s, ok := reasonStatus[e.Reason]; ok {
		return s
	}
	return http.StatusForbidden
}

func deny(r Reason) error {
	return &DenyError{Reason: r}
}

// ReasonOf extracts the deny reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var de *DenyError
	if errors.As(err, &de) {
		return de.Reason, true
	}
	return "", false
}

var ErrUserNotFound = errors.New("user not found")
