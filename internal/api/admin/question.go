package admin

import (
	"net/http"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"github.com/ZJUSCT/CSArena/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

func (h *Handler) getAllQuestions(c *gin.Context) {
	questions, err := database.GetQuestions(h.db.WithContext(c.Request.Context()), "", c.Query("tag"))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	util.Success(c, questions, "Questions retrieved successfully")
}

// createQuestion stores a question hosted on exactly one judge. Its points
// come from the difficulty. The slug defaults to one derived from the title.
func (h *Handler) createQuestion(c *gin.Context) {
	var req struct {
		Slug          string   `json:"slug"`
		Title         string   `json:"title" binding:"required"`
		LeetcodeURL   string   `json:"leetcode_url"`
		CodeforcesURL string   `json:"codeforces_url"`
		Difficulty    string   `json:"difficulty" binding:"required"`
		Tags          []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, err)
		return
	}

	difficulty := models.Difficulty(strings.ToUpper(req.Difficulty))
	if !difficulty.Valid() {
		util.Error(c, http.StatusBadRequest, "unknown difficulty")
		return
	}
	if (req.LeetcodeURL == "") == (req.CodeforcesURL == "") {
		util.Error(c, http.StatusBadRequest, "exactly one of leetcode_url and codeforces_url must be set")
		return
	}

	// An explicit slug is the judge's problem id and is case-sensitive on
	// Codeforces, so only the title fallback is slugified.
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" {
		req.Slug = slug.Make(req.Title)
	}

	q := models.Question{
		ID:            uuid.NewString(),
		Slug:          req.Slug,
		Title:         req.Title,
		LeetcodeURL:   req.LeetcodeURL,
		CodeforcesURL: req.CodeforcesURL,
		Difficulty:    difficulty,
		Points:        difficulty.Points(),
	}
	if err := database.CreateQuestion(h.db.WithContext(c.Request.Context()), &q, req.Tags); err != nil {
		util.Error(c, http.StatusInternalServerError, err)
		return
	}
	zap.S().Infof("admin created question %s worth %d", q.Slug, q.Points)
	util.Success(c, q, "Question created successfully")
}
