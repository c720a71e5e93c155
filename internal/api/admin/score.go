package admin

import (
	"net/http"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) recalculateScore(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	points, err := h.service.RecalculateUser(c.Request.Context(), req.UserID)
	if err != nil {
		api.Fail(c, err)
		return
	}

	zap.S().Infof("admin triggered score recalculation for user %s: %d points", req.UserID, points)
	util.Success(c, gin.H{"user_id": req.UserID, "individual_points": points}, "Score recalculated successfully")
}
