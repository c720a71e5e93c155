package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

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
	util.Success(c, contests, "Contests loaded")
}

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

	now := time.Now()
	ct.Status = ct.StatusAt(now)
	// The question list stays hidden until the window opens.
	if now.Before(ct.StartTime) {
		ct.Questions = nil
		util.Success(c, ct, "Contest found, but is not currently active")
		return
	}
	util.Success(c, ct, "Contest found")
}

func (h *Handler) getContestLeaderboard(c *gin.Context) {
	board, err := database.GetContestLeaderboard(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, board, "Leaderboard retrieved")
}

func (h *Handler) getContestPermission(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)
	err := h.service.CanStart(c.Request.Context(), userID, c.Param("id"), time.Now())

	resp := gin.H{"allowed": err == nil}
	if err != nil {
		reason, ok := contest.ReasonOf(err)
		if !ok || reason == contest.ReasonContestNotFound {
			api.Fail(c, err)
			return
		}
		resp["reason"] = reason
		resp["message"] = err.Error()
	}
	util.Success(c, resp, "Permission evaluated")
}

func (h *Handler) getContestStatus(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)
	status, err := h.service.Status(c.Request.Context(), userID, c.Param("id"), time.Now())
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, status, "Attempt status retrieved")
}

func (h *Handler) startContest(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)
	res, err := h.service.Start(c.Request.Context(), userID, c.Param("id"), time.Now())
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, res, "Contest started")
}

func (h *Handler) endContest(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)

	var req contest.EndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}
	if req.FinalScore < 0 {
		util.Error(c, http.StatusBadRequest, "final_score must not be negative")
		return
	}

	res, err := h.service.End(c.Request.Context(), userID, c.Param("id"), req, time.Now())
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, res, res.Message)
}
