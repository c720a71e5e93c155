package user

import (
	"net/http"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getQuestions(c *gin.Context) {
	difficulty := models.Difficulty(strings.ToUpper(c.Query("difficulty")))
	if difficulty != "" && !difficulty.Valid() {
		util.Error(c, http.StatusBadRequest, "unknown difficulty")
		return
	}

	questions, err := database.GetQuestions(h.db.WithContext(c.Request.Context()), difficulty, c.Query("tag"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, questions, "Questions retrieved")
}

// submitPractice records a solve outside any contest. It only affects the
// caller's individual points.
func (h *Handler) submitPractice(c *gin.Context) {
	userID := c.GetString(api.UserIDKey)
	sub, err := h.service.RecordPractice(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	util.Success(c, sub, "Submission recorded")
}
