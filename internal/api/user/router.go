package user

import (
	"github.com/ZJUSCT/CSArena/internal/api"
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/contest"
	"github.com/ZJUSCT/CSArena/internal/pubsub"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NewUserRouter creates and configures the user Gin engine.
func NewUserRouter(
	cfg *config.Config,
	db *gorm.DB,
	service *contest.Service,
	broker *pubsub.Broker) *gin.Engine {

	r := gin.Default()

	r.Use(api.CORSMiddleware(cfg.CORS))

	h := NewHandler(cfg, db, service, broker)

	v1 := r.Group("/api/v1")
	{
		// Live contest events
		v1.GET("/ws/contests/:id", h.handleContestWs)

		// Publicly accessible info
		v1.GET("/contests", h.getAllContests)
		v1.GET("/contests/:id", h.getContest)
		v1.GET("/contests/:id/leaderboard", h.getContestLeaderboard)
		v1.GET("/leaderboard/groups", h.getGroupLeaderboard)
		v1.GET("/leaderboard/users", h.getUserLeaderboard)
		v1.GET("/questions", h.getQuestions)

		authed := v1.Group("/")
		authed.Use(api.AuthMiddleware(cfg.Auth.JWT.Secret))
		{
			profile := authed.Group("/user")
			{
				profile.GET("/profile", h.getUserProfile)
				profile.PATCH("/profile", h.updateUserProfile)
			}

			// Contest lifecycle
			authed.GET("/contests/:id/permission", h.getContestPermission)
			authed.GET("/contests/:id/status", h.getContestStatus)
			authed.POST("/contests/:id/start", h.startContest)
			authed.POST("/contests/:id/end", h.endContest)

			// Practice
			authed.POST("/questions/:id/submit", h.submitPractice)
			authed.GET("/submissions", h.getUserSubmissions)
		}
	}

	return r
}
