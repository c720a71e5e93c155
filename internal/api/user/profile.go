package user

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type profileResponse struct {
	*models.User
	Group *groupSummary `json:"group,omitempty"`
}

type groupSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	GroupPoints   float64 `json:"group_points"`
	CoordinatorID string  `json:"coordinator_id"`
}

func (h *Handler) getUserProfile(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	user, err := database.GetUserByID(db, c.GetString(api.UserIDKey))
	if err != nil {
		api.Fail(c, err)
		return
	}

	resp := profileResponse{User: user}
	var group *models.Group
	if user.GroupID != nil {
		group, err = database.GetGroup(db, *user.GroupID)
	} else {
		// coordinators need not be members of the group they run
		group, err = database.GetCoordinatedGroup(db, user.ID)
	}
	switch {
	case err == nil:
		resp.Group = &groupSummary{
			ID:            group.ID,
			Name:          group.Name,
			GroupPoints:   group.GroupPoints,
			CoordinatorID: group.CoordinatorID,
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, resp, "ok")
}

// updateUserProfile sets the judge handles used to verify solves.
func (h *Handler) updateUserProfile(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	user, err := database.GetUserByID(db, c.GetString(api.UserIDKey))
	if err != nil {
		api.Fail(c, err)
		return
	}

	var reqBody struct {
		LeetcodeUsername   *string `json:"leetcode_username"`
		CodeforcesUsername *string `json:"codeforces_username"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if reqBody.LeetcodeUsername != nil {
		user.LeetcodeUsername = strings.TrimSpace(*reqBody.LeetcodeUsername)
	}
	if reqBody.CodeforcesUsername != nil {
		user.CodeforcesUsername = strings.TrimSpace(*reqBody.CodeforcesUsername)
	}
	if err := database.UpdateUser(db, user); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, user, "Profile updated")
}
