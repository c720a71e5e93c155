package admin

import (
	"net/http"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *Handler) createGroup(c *gin.Context) {
	var req struct {
		Name          string `json:"name" binding:"required"`
		CoordinatorID string `json:"coordinator_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	if _, err := database.GetUserByID(db, req.CoordinatorID); err != nil {
		api.Fail(c, err)
		return
	}

	group := models.Group{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(req.Name),
		CoordinatorID: req.CoordinatorID,
	}
	if err := database.CreateGroup(db, &group); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created group %s coordinated by %s", group.Name, group.CoordinatorID)
	util.Success(c, group, "Group created successfully")
}

func (h *Handler) getGroup(c *gin.Context) {
	group, err := database.GetGroup(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, group, "Group retrieved successfully")
}

// addGroupMember puts a user into the group. Users already in another group
// are refused with 409.
func (h *Handler) addGroupMember(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	groupID := c.Param("id")
	if err := database.AddGroupMember(h.db.WithContext(c.Request.Context()), groupID, req.UserID); err != nil {
		api.Fail(c, err)
		return
	}
	zap.S().Infof("admin added user %s to group %s", req.UserID, groupID)
	util.Success(c, nil, "Member added successfully")
}
