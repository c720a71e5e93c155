package user

import (
	"net/http"

	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
)

func (h *Handler) getUserSubmissions(c *gin.Context) {
	subs, err := database.GetSubmissionsByUserID(h.db.WithContext(c.Request.Context()), c.GetString(api.UserIDKey))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, subs, "Submissions retrieved")
}
