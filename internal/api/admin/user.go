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

func (h *Handler) getAllUsers(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	if q := c.Query("query"); q != "" {
		like := "%" + q + "%"
		db = db.Where("id = ? OR username LIKE ? OR email LIKE ?", q, like, like)
	}
	users, err := database.GetAllUsers(db)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, users, "Users retrieved successfully")
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := database.GetUserByID(h.db.WithContext(c.Request.Context()), c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, user, "User retrieved successfully")
}

func (h *Handler) createUser(c *gin.Context) {
	var req struct {
		Email              string `json:"email" binding:"required"`
		Username           string `json:"username" binding:"required"`
		LeetcodeUsername   string `json:"leetcode_username"`
		CodeforcesUsername string `json:"codeforces_username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	user := models.User{
		ID:                 uuid.NewString(),
		Email:              strings.TrimSpace(req.Email),
		Username:           strings.TrimSpace(req.Username),
		LeetcodeUsername:   strings.TrimSpace(req.LeetcodeUsername),
		CodeforcesUsername: strings.TrimSpace(req.CodeforcesUsername),
	}
	if err := database.CreateUser(h.db.WithContext(c.Request.Context()), &user); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created user %s (%s)", user.Username, user.ID)
	util.Success(c, user, "User created successfully")
}
