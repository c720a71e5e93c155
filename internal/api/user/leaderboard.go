package user

import (
	"net/http"
	"strconv"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
)

const (
	defaultBoardSize = 50
	maxBoardSize     = 200
)

func boardLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultBoardSize)))
	if err != nil || n <= 0 {
		return defaultBoardSize
	}
	return min(n, maxBoardSize)
}

func (h *Handler) getGroupLeaderboard(c *gin.Context) {
	groups, err := database.GetGroupLeaderboard(h.db.WithContext(c.Request.Context()), boardLimit(c))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, groups, "Group leaderboard retrieved")
}

func (h *Handler) getUserLeaderboard(c *gin.Context) {
	users, err := database.GetUserLeaderboard(h.db.WithContext(c.Request.Context()), boardLimit(c))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, users, "User leaderboard retrieved")
}
