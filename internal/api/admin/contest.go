package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// getAllContests returns every contest, whatever its window.
func (h *Handler) getAllContests(c *gin.Context) {
	contests, err := database.GetAllContests(h.db.WithContext(c.Request.Context()))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	now := time.Now()
	for i := range contests {
		contests[i].Status = contests[i].StatusAt(now)
	}
	util.Success(c, contests, "All contests retrieved")
}

// getContest returns full contest details, questions included, at all times.
func (h *Handler) getContest(c *gin.Context) {
	ct, err := database.GetContest(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "contest not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	ct.Status = ct.StatusAt(time.Now())
	util.Success(c, ct, "Contest details retrieved")
}

func (h *Handler) createContest(c *gin.Context) {
	var req struct {
		Name      string    `json:"name" binding:"required"`
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time" binding:"required"`
		Duration  int       `json:"duration" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		util.Error(c, http.StatusBadRequest, "end_time must be after start_time")
		return
	}
	if req.Duration <= 0 {
		util.Error(c, http.StatusBadRequest, "duration must be a positive number of minutes")
		return
	}

	status := models.ContestActive
	if time.Now().Before(req.StartTime) {
		status = models.ContestInactive
	}
	ct := models.Contest{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Duration:  req.Duration,
		Status:    status,
	}
	if err := database.CreateContest(h.db.WithContext(c.Request.Context()), &ct); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created contest '%s' (%s)", ct.Name, ct.ID)
	util.Success(c, ct, "Contest created successfully")
}

func (h *Handler) attachQuestion(c *gin.Context) {
	var req struct {
		QuestionID string `json:"question_id" binding:"required"`
		Sequence   int    `json:"sequence"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	contestID := c.Param("id")
	if err := h.service.AddQuestion(c.Request.Context(), contestID, req.QuestionID, req.Sequence); err != nil {
		api.Fail(c, err)
		return
	}
	zap.S().Infof("admin attached question %s to contest %s at %d", req.QuestionID, contestID, req.Sequence)
	util.Success(c, nil, "Question attached successfully")
}

func (h *Handler) getContestPermission(c *gin.Context) {
	set, err := database.GetContestPermission(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, set, "Permission retrieved")
}

// setContestPermission replaces the allow-list. Only the list matching the
// mode is kept.
func (h *Handler) setContestPermission(c *gin.Context) {
	var req struct {
		Mode     string   `json:"mode" binding:"required"`
		GroupIDs []string `json:"group_ids"`
		UserIDs  []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	mode := models.PermissionMode(strings.ToLower(req.Mode))
	var ids []string
	switch mode {
	case models.PermissionGroups:
		ids = req.GroupIDs
	case models.PermissionUsers:
		ids = req.UserIDs
	}

	contestID := c.Param("id")
	if err := h.service.SetPermission(c.Request.Context(), contestID, mode, ids); err != nil {
		api.Fail(c, err)
		return
	}
	zap.S().Infof("admin set contest %s permission to %s with %d entries", contestID, mode, len(ids))
	util.Success(c, nil, "Permission updated")
}

func (h *Handler) rankContest(c *gin.Context) {
	contestID := c.Param("id")
	if _, err := database.GetContest(h.db.WithContext(c.Request.Context()), contestID); err != nil {
		api.Fail(c, err)
		return
	}
	ranked, err := h.service.RankContest(c.Request.Context(), contestID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, ranked, "Contest ranked")
}
