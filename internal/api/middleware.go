package api

import (
	"net/http"
	"strings"

	"github.com/ZJUSCT/CSArena/internal/auth"
	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/util"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the context key AuthMiddleware stores the caller's id under.
const UserIDKey = "userID"

// CORSMiddleware provides a configurable CORS middleware.
func CORSMiddleware(cfg config.CORS) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.AllowedOrigins) == 0 {
			c.Next()
			return
		}

		origin := c.Request.Header.Get("Origin")
		allowOrigin := ""
		for _, o := range cfg.AllowedOrigins {
			if o == "*" || o == origin {
				allowOrigin = o
				break
			}
		}

		if allowOrigin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusNoContent)
				return
			}
		}
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer token and records its subject.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.Error(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || token == "" {
			util.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := auth.ValidateJWT(token, secret)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}
