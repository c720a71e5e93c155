package admin

import (
	"net/http"
	"strconv"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getAllSubmissions(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	if userID := c.Query("user_id"); userID != "" {
		subs, err := database.GetSubmissionsByUserID(db, userID)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, err)
			return
		}
		util.Success(c, subs, "ok")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		util.Error(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	subs, err := database.GetSubmissions(db, c.Query("contest_id"), limit)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "ok")
}
