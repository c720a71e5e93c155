package api

import (
	"errors"
	"net/http"

	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Fail writes err with the status its kind maps to. Denials carry their
// reason, missing records are 404, and anything else is a retryable 500.
func Fail(c *gin.Context, err error) {
	var de *contest.DenyError
	switch {
	case errors.As(err, &de):
		util.Deny(c, de.HTTPStatus(), string(de.Reason), de.Error())
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, contest.ErrUserNotFound):
		util.Error(c, http.StatusNotFound, err)
	case errors.Is(err, database.ErrAlreadyInGroup):
		util.Error(c, http.StatusConflict, err)
	case errors.Is(err, database.ErrInvalidMode):
		util.Error(c, http.StatusBadRequest, err)
	default:
		util.Error(c, http.StatusInternalServerError, err)
	}
}
