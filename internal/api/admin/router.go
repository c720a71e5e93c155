package admin

import (
	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// NewAdminRouter creates and configures the admin Gin engine. The admin
// server is meant for an operator network and carries no authentication.
func NewAdminRouter(
	cfg *config.Config,
	db *gorm.DB,
	service *contest.Service,
	gatherer prometheus.Gatherer) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, service, gatherer)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.GET("", h.getAllUsers)
			users.POST("", h.createUser)
			users.GET("/:id", h.getUser)
		}

		groups := v1.Group("/groups")
		{
			groups.POST("", h.createGroup)
			groups.GET("/:id", h.getGroup)
			groups.POST("/:id/members", h.addGroupMember)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("", h.getAllQuestions)
			questions.POST("", h.createQuestion)
		}

		contests := v1.Group("/contests")
		{
			contests.GET("", h.getAllContests)
			contests.POST("", h.createContest)
			contests.GET("/:id", h.getContest)
			contests.POST("/:id/questions", h.attachQuestion)
			contests.GET("/:id/permission", h.getContestPermission)
			contests.PUT("/:id/permission", h.setContestPermission)
			contests.POST("/:id/rank", h.rankContest)
		}

		v1.GET("/submissions", h.getAllSubmissions)

		scores := v1.Group("/scores")
		{
			scores.POST("/recalculate", h.recalculateScore)
		}
	}

	return r
}
